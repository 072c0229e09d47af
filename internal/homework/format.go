package homework

import "fmt"

// ParseStatus renders the chat notification for one submission.
func ParseStatus(s Submission) (string, error) {
	for _, key := range []string{KeyHomeworkName, KeyStatus} {
		if _, ok := s[key]; !ok {
			return "", fmt.Errorf("%w: %q", ErrKeyMissing, key)
		}
	}
	name, err := s.Name()
	if err != nil {
		return "", err
	}
	status, err := s.Status()
	if err != nil {
		return "", err
	}
	if !status.Known() {
		return "", fmt.Errorf("%w: %q (homework %q)", ErrUnknownStatus, string(status), name)
	}
	verdict, _ := status.Verdict()
	if verdict == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatusForHomework, string(status))
	}
	return fmt.Sprintf("Изменился статус проверки работы \"%s\". %s", name, verdict), nil
}

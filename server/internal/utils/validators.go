package utils

// MaxParticipantIDLength bounds participant ids, which end up in file names.
const MaxParticipantIDLength = 64

// IsValidParticipantID checks that the id only contains ASCII letters, digits,
// '_' and '-', so it is safe to use in a file name.
func IsValidParticipantID(id string) bool {
	if len(id) == 0 || len(id) > MaxParticipantIDLength {
		return false
	}

	for _, char := range id {
		switch {
		case char >= 'a' && char <= 'z':
		case char >= 'A' && char <= 'Z':
		case char >= '0' && char <= '9':
		case char == '_' || char == '-':
		default:
			return false
		}
	}
	return true
}

package utils

import "math/rand"

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")
var digits = "0123456789"

// GenerateRandomPassword produces a temporary password for a newly
// created planner account; it's mailed once and never stored.
func GenerateRandomPassword(length int) string {
	password := make([]rune, length)
	for i := range password {
		password[i] = letters[rand.Intn(len(letters))]
	}
	return string(password)
}

// GenerateRandomID returns letterLength characters drawn from the same
// alphabet as GenerateRandomPassword, followed by digitLength decimal
// digits. Schedule runs are identified by their numeric database ID,
// not by this function.
func GenerateRandomID(letterLength, digitLength int) string {
	id := make([]rune, letterLength+digitLength)
	for i := range id {
		if i < letterLength {
			id[i] = letters[rand.Intn(len(letters))]
		} else {
			id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(id)
}

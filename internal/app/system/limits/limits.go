// internal/app/system/limits/limits.go
package limits

import "time"

// Request body size limits.
const (
	// MaxRegistrationFormSize caps the public registration form body.
	MaxRegistrationFormSize = 64 << 10 // 64 KB

	// MaxLoginFormSize caps the sign-in form body.
	MaxLoginFormSize = 8 << 10 // 8 KB
)

// Public registration throttle per client IP.
const (
	RegistrationsPerWindow = 20
	RegistrationWindow     = 10 * time.Minute
)

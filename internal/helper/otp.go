package helper

import "crypto/rand"

const otpCharset = "0123456789"

// GenerateOtpCode - Kode OTP numerik acak (crypto/rand)
func GenerateOtpCode(length int) (string, error) {
	code := make([]byte, length)

	if _, err := rand.Read(code); err != nil {
		return "", err
	}

	for i := 0; i < length; i++ {
		code[i] = otpCharset[int(code[i])%len(otpCharset)]
	}

	return string(code), nil
}

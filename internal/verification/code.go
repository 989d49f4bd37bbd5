package verification

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

const (
	CodeLength = 6
	codeSpace  = 1_000_000
)

// GenerateCode 生成 6 位数字验证码，范围 [000000, 999999]
func GenerateCode() (string, error) {
	return generateCodeFrom(rand.Reader)
}

func generateCodeFrom(reader io.Reader) (string, error) {
	n, err := rand.Int(reader, big.NewInt(codeSpace))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ValidCodeFormat 是否为 6 位数字
func ValidCodeFormat(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

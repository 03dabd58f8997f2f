package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
)

var (
	printfFn  = fmt.Printf
	fatalfFn  = log.Fatalf
	randRead  = rand.Read
	secretEnv = []string{"JWT_SECRET", "TELEGRAM_WEBHOOK_SECRET"}
)

func main() {
	hexLen := flag.Int("hex-len", 64, "random hex length (must be even)")
	flag.Parse()

	lines, err := buildSecrets(*hexLen)
	if err != nil {
		fatalfFn("failed to generate secrets: %v", err)
		return
	}

	printfFn("Generated secrets\n")
	for _, line := range lines {
		printfFn("%s\n", line)
	}
}

func validateHexLen(n int) error {
	if n <= 0 || n%2 != 0 {
		return fmt.Errorf("invalid hex-len: %d (must be positive and even)", n)
	}
	return nil
}

// buildSecrets returns one KEY=value line per secret the server reads
func buildSecrets(hexLen int) ([]string, error) {
	if err := validateHexLen(hexLen); err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(secretEnv))
	for _, name := range secretEnv {
		v, err := generateRandomHex(hexLen)
		if err != nil {
			return nil, err
		}
		lines = append(lines, name+"="+v)
	}
	return lines, nil
}

func generateRandomHex(n int) (string, error) {
	b := make([]byte, n/2)
	if _, err := randRead(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

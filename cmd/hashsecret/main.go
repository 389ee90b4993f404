// Command hashsecret prints the ADMIN_SECRET_HASH value for a secret read
// from stdin.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/vedran77/tally/pkg/passhash"
)

func main() {
	secret, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && secret == "" {
		fmt.Fprintln(os.Stderr, "hashsecret: reading secret:", err)
		os.Exit(1)
	}

	secret = strings.TrimRight(secret, "\r\n")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "hashsecret: empty secret")
		os.Exit(1)
	}

	hash, err := passhash.Hash(secret)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hashsecret:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

// Command hashpass prints the argon2id hash of a password. Useful for
// seeding the first admin account straight into the database.
package main

import (
	"fmt"
	"os"

	"github.com/civicflow/api/internal/auth"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: hashpass <password>")
		os.Exit(1)
	}

	hash, err := auth.Hash(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}

package main

import (
	"fmt"
	"os"

	"github.com/angelmondragon/storefront-backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "storefrontctl:", err)
		os.Exit(1)
	}
}

// licgen generates license codes offline. It shares internal/codec with the
// server, so the secret passed here must be the server's LIC_SERVER_SECRET.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"hwlock/internal/codec"
)

func main() {
	product := flag.String("product", "", "product code the license is for (e.g. demo_paid)")
	days := flag.Int("days", 3650, "days until expiry, 0 for no expiry")
	count := flag.Int("count", 1, "number of codes to generate")
	secret := flag.String("secret", os.Getenv("LIC_SERVER_SECRET"), "signing secret shared with the server")
	flag.Parse()

	if *product == "" {
		fmt.Fprintln(os.Stderr, "licgen: -product is required")
		os.Exit(2)
	}
	if *secret == "" {
		fmt.Fprintln(os.Stderr, "licgen: -secret or LIC_SERVER_SECRET is required")
		os.Exit(2)
	}

	var expiresAt *time.Time
	if *days > 0 {
		expiry := time.Now().UTC().AddDate(0, 0, *days).Truncate(time.Second)
		expiresAt = &expiry
	}

	for i := 0; i < *count; i++ {
		fields, err := codec.NewFields(*product, expiresAt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "licgen: %v\n", err)
			os.Exit(1)
		}
		code, err := codec.Encode(fields, []byte(*secret))
		if err != nil {
			fmt.Fprintf(os.Stderr, "licgen: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(code)
	}
}

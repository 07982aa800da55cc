package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/smarttransit/transfer-booking-backend/internal/utils"
)

func main() {
	size := flag.Int("bytes", 32, "secret length in bytes")
	flag.Parse()

	fmt.Println("===========================================")
	fmt.Println("Cart Token Secret Generator")
	fmt.Println("===========================================")
	fmt.Println()

	secret, err := utils.GenerateSecret(*size)
	if err != nil {
		log.Fatalf("Failed to generate secret: %v", err)
	}

	fmt.Println("Add this to your .env file:")
	fmt.Println()
	fmt.Printf("CART_TOKEN_SECRET=%s\n", secret)
	fmt.Println()
	fmt.Println("Keep this secret safe and never commit it to version control.")
	fmt.Println("===========================================")
}

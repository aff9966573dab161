package main

import (
	"log"

	"github.com/futig/datachat/internal/builder"
)

// @title datachat API
// @version 1.0
// @description Upload a CSV or text document and ask questions answered from its content.
func main() {
	app, err := builder.Build()
	if err != nil {
		log.Fatal("Failed to build application:", err)
	}

	if err := app.Run(); err != nil {
		log.Fatal("Application error:", err)
	}
}

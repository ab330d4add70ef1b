package main

import (
	"log"

	"github.com/buidl-renaissance/art-night-detroit-sub000/cmd"
)

func main() {
	if err := cmd.Start(); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/wormdb/worm"
)

func main() {
	g := worm.NewGen()
	g.SetLog(func(messages ...any) {
		fmt.Fprintln(os.Stderr, messages...)
	})
	if err := g.Run(); err != nil {
		log.Fatalf("wormgen: %v", err)
	}
}

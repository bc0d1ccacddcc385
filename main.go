package main

import (
	"log"

	"github.com/sarv/procscope/cmd/procscope"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	procscope.Execute()
}

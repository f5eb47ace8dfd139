package main

import (
	"fmt"
	"os"

	"github.com/control-num/dple/internal/logger"
	"github.com/control-num/dple/pkg/rest"
)

// create and run a REST API server
func main() {
	if _, err := logger.InitLogger(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer logger.SyncLogger()

	rest.NewSolveServer().Run()
}

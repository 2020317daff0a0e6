package main

import (
	"log"
	"net/http"

	"github.com/starius/httpcontract/example"
)

func main() {
	service := example.NewEchoService(example.NewEchoRepository())
	log.Fatal(http.ListenAndServe(":8080", example.NewHandler(service)))
}

package chargraph

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/dancancer/chargraph/helper"
)

var dbPort string

func TestMain(m *testing.M) {
	teardown, port, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}
	dbPort = port

	code := m.Run()

	if err := teardown(context.Background()); err != nil {
		log.Printf("error tearing down postgres container: %v", err)
	}
	os.Exit(code)
}

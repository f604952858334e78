//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	BINARY_NAME    = "bin/chatroom-service"
	INSPECT_BINARY = "bin/chatinspect"
)

func Build() error {
	fmt.Println("Building server binary...")
	if err := sh.RunV("go", "build", "-o", BINARY_NAME, "."); err != nil {
		return err
	}
	fmt.Println("Building inspector...")
	return sh.RunV("go", "build", "-o", INSPECT_BINARY, "./cmd/chatinspect")
}

func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

func Test() error {
	mg.Deps(Vet)
	return sh.RunV("go", "test", "-race", "./...")
}

// Run starts the server against a local badger store.
func Run() error {
	env := map[string]string{"CHAT_STORAGE_DRIVER": "badger"}
	return sh.RunWithV(env, "go", "run", ".")
}

func Clean() {
	fmt.Println("Cleaning up...")
	os.RemoveAll("bin")
}

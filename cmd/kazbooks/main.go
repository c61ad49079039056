package main

import "github.com/mequqqe1/kazbooks-app/internal/app"

func main() {
	app.Execute()
}

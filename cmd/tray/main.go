// Command tray runs a voice assistant tray session in the terminal.
package main

func main() {
	Execute()
}

// Package main provides the notistack CLI for the notification history.
package main

func main() {
	Execute()
}

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// PromptSelect displays numbered options and returns the selected index
// Returns -1 if cancelled (user enters "0" or empty)
func PromptSelect(message string, options []string) int {
	if len(options) == 0 {
		return -1
	}

	fmt.Println()
	fmt.Println(message)
	for i, opt := range options {
		fmt.Printf("  [%d] %s\n", i+1, opt)
	}
	fmt.Printf("  [0] Skip\n")
	fmt.Println()
	fmt.Print("? Select: ")

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return -1
	}

	input = strings.TrimSpace(input)
	if input == "" || input == "0" {
		return -1
	}

	choice, err := strconv.Atoi(input)
	if err != nil || choice < 1 || choice > len(options) {
		return -1
	}

	return choice - 1
}

// PromptString asks for one line of input and falls back to the default
// on an empty answer.
func PromptString(message, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("? %s [%s]: ", message, defaultValue)
	} else {
		fmt.Printf("? %s: ", message)
	}

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return defaultValue
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue
	}
	return input
}

// PromptConfirm asks a yes/no question. Only "y" or "yes" confirm.
func PromptConfirm(message string) bool {
	fmt.Printf("? %s [y/N]: ", message)

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	input = strings.ToLower(strings.TrimSpace(input))
	return input == "y" || input == "yes"
}

// IsInteractive returns true if stdin is a terminal and --yes flag is not set
func IsInteractive() bool {
	if IsYesMode() {
		return false
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// main.go - Admin control tool for pagelens
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"pagelens/internal/config"
	"pagelens/internal/database"
	"pagelens/internal/logging"
)

// Command defines the interface for all command implementations
type Command interface {
	// Name returns the command name
	Name() string
	// Description returns the command description
	Description() string
	// Execute runs the command with the given args
	Execute(ctx context.Context, args []string) error
}

// The set of available commands
var commands = []Command{
	&GenerateAPIKeyCommand{},
	&HashAPIKeyCommand{},
	&ListPropertiesCommand{},
	&MigrateCommand{},
	&HelpCommand{},
}

func main() {
	flag.Parse()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, initiating cleanup...", sig)
		cancel()
	}()

	cmdName, args := parseArgs()

	cmd := findCommand(cmdName)
	if cmd == nil {
		showUsageAndExit()
	}

	if err := cmd.Execute(ctx, args); err != nil {
		log.Fatalf("Command failed: %v", err)
	}

	log.Printf("Command %s completed successfully", cmd.Name())
}

func parseArgs() (string, []string) {
	args := flag.Args()
	if len(args) == 0 {
		return "help", nil
	}
	return args[0], args[1:]
}

func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func showUsageAndExit() {
	fmt.Println("Usage: lensctl <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	for _, cmd := range commands {
		fmt.Printf("  %-20s %s\n", cmd.Name(), cmd.Description())
	}
	os.Exit(1)
}

const apiKeyBytes = 24

// GenerateAPIKeyCommand creates a fresh API key for a property and prints the
// bcrypt hash to store in the properties file.
type GenerateAPIKeyCommand struct{}

// Name returns the command name
func (c *GenerateAPIKeyCommand) Name() string {
	return "generate-api-key"
}

// Description returns the command description
func (c *GenerateAPIKeyCommand) Description() string {
	return "Generates a new API key and its hash for a property"
}

// Execute implements the generate-api-key command
func (c *GenerateAPIKeyCommand) Execute(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s <property-id>", c.Name())
	}
	propertyID := args[0]

	raw := make([]byte, apiKeyBytes)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("failed to generate key material: %w", err)
	}
	key := "pl_" + hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash key: %w", err)
	}

	fmt.Printf("API key for property %q (shown once, store it now):\n\n", propertyID)
	fmt.Printf("  %s\n\n", key)
	fmt.Println("Add the hash to the property entry in your properties file:")
	fmt.Printf("\n  api_key_hash: %q\n", string(hash))
	return nil
}

// HashAPIKeyCommand hashes an existing key, prompted without echo.
type HashAPIKeyCommand struct{}

// Name returns the command name
func (c *HashAPIKeyCommand) Name() string {
	return "hash-api-key"
}

// Description returns the command description
func (c *HashAPIKeyCommand) Description() string {
	return "Prompts for an existing API key and prints its hash"
}

// Execute implements the hash-api-key command
func (c *HashAPIKeyCommand) Execute(ctx context.Context, args []string) error {
	fmt.Print("Enter API key: ")
	keyBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return fmt.Errorf("failed to read key: %w", err)
	}
	fmt.Println()

	key := strings.TrimSpace(string(keyBytes))
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash key: %w", err)
	}

	fmt.Printf("api_key_hash: %q\n", string(hash))
	return nil
}

// ListPropertiesCommand prints the configured properties.
type ListPropertiesCommand struct{}

// Name returns the command name
func (c *ListPropertiesCommand) Name() string {
	return "list-properties"
}

// Description returns the command description
func (c *ListPropertiesCommand) Description() string {
	return "Lists the configured properties"
}

// Execute implements the list-properties command
func (c *ListPropertiesCommand) Execute(ctx context.Context, args []string) error {
	cfg := config.GetConfig()
	properties, err := config.LoadProperties(cfg.PropertiesFile)
	if err != nil {
		return fmt.Errorf("failed to load properties: %w", err)
	}

	ids := properties.IDs()
	if len(ids) == 0 {
		fmt.Println("No properties configured")
		return nil
	}

	for _, id := range ids {
		prop, err := properties.Get(id)
		if err != nil {
			return err
		}
		keyState := "no api key"
		if prop.APIKeyHash != "" {
			keyState = "api key set"
		}
		fmt.Printf("  %-20s %-30s %s\n", prop.ID, prop.Domain, keyState)
	}
	return nil
}

// MigrateCommand brings the database schema up to date.
type MigrateCommand struct{}

// Name returns the command name
func (c *MigrateCommand) Name() string {
	return "migrate"
}

// Description returns the command description
func (c *MigrateCommand) Description() string {
	return "Runs database migrations"
}

// Execute implements the migrate command
func (c *MigrateCommand) Execute(ctx context.Context, args []string) error {
	cfg := config.GetConfig()
	logger := logging.NewLogger(cfg)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbManager.Close()

	return dbManager.MigrateDatabase()
}

// HelpCommand prints usage.
type HelpCommand struct{}

// Name returns the command name
func (c *HelpCommand) Name() string {
	return "help"
}

// Description returns the command description
func (c *HelpCommand) Description() string {
	return "Shows this help"
}

// Execute implements the help command
func (c *HelpCommand) Execute(ctx context.Context, args []string) error {
	fmt.Println("Usage: lensctl <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	for _, cmd := range commands {
		fmt.Printf("  %-20s %s\n", cmd.Name(), cmd.Description())
	}
	return nil
}

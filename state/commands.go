package state

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrUsage is returned for a missing or unknown subcommand.
var ErrUsage = errors.New("invalid state command")

// Commands maintains the view state database while the server is stopped.
type Commands struct {
	DBPath string
	In     io.Reader
	Out    io.Writer
}

// Handle runs one state subcommand
func (c *Commands) Handle(args []string) error {
	if len(args) < 1 {
		c.printHelp()
		return ErrUsage
	}

	switch args[0] {
	case "clean":
		return c.clean()
	case "backup":
		dir := "data/backups"
		if len(args) > 1 {
			dir = args[1]
		}
		_, err := c.backup(dir)
		return err
	case "restore":
		if len(args) < 2 {
			fmt.Fprintln(c.Out, "Error: backup file path required for restore")
			return ErrUsage
		}
		return c.restore(args[1])
	case "help":
		c.printHelp()
		return nil
	default:
		fmt.Fprintf(c.Out, "Unknown state command: %s\n\n", args[0])
		c.printHelp()
		return ErrUsage
	}
}

func (c *Commands) printHelp() {
	helpText := `Usage: blogdesk state <command> [options]

Commands:
  clean                          Remove the view state database
  backup [dir]                   Write a backup of the view state database (default data/backups)
  restore <backup_file>          Replace the view state database with a backup
  help                           Display this help message

The server must be stopped while these commands run.
`
	fmt.Fprint(c.Out, helpText)
}

// confirm asks a yes/no question; anything but y/Y means no.
func (c *Commands) confirm(question string) bool {
	fmt.Fprintf(c.Out, "%s [y/N] ", question)
	line, _ := bufio.NewReader(c.In).ReadString('\n')
	line = strings.TrimSpace(line)
	return line == "y" || line == "Y"
}

func (c *Commands) open() (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions(c.DBPath).WithLogger(nil))
}

// clean removes the database
func (c *Commands) clean() error {
	if _, err := os.Stat(c.DBPath); os.IsNotExist(err) {
		fmt.Fprintln(c.Out, "View state is already clean (does not exist)")
		return nil
	}

	if !c.confirm("Are you sure you want to clean the view state? All open forms and messages are lost.") {
		fmt.Fprintln(c.Out, "Operation cancelled")
		return nil
	}

	if err := os.RemoveAll(c.DBPath); err != nil {
		return fmt.Errorf("failed to clean view state: %w", err)
	}
	fmt.Fprintln(c.Out, "View state cleaned successfully")
	return nil
}

// backup writes a full backup of the database into dir and returns its path
func (c *Commands) backup(dir string) (string, error) {
	if _, err := os.Stat(c.DBPath); os.IsNotExist(err) {
		fmt.Fprintln(c.Out, "No view state exists to backup")
		return "", nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	db, err := c.open()
	if err != nil {
		return "", fmt.Errorf("failed to open view state: %w", err)
	}
	defer db.Close()

	backupFile := filepath.Join(dir, fmt.Sprintf("backup_%d.db", time.Now().UnixNano()))
	f, err := os.Create(backupFile)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	if _, err := db.Backup(f, 0); err != nil {
		return "", fmt.Errorf("failed to backup view state: %w", err)
	}

	fmt.Fprintf(c.Out, "View state backed up successfully to %s\n", backupFile)
	return backupFile, nil
}

// restore restores the database from a backup
func (c *Commands) restore(backupFile string) error {
	if _, err := os.Stat(backupFile); os.IsNotExist(err) {
		fmt.Fprintf(c.Out, "Backup file does not exist: %s\n", backupFile)
		return nil
	}

	if _, err := os.Stat(c.DBPath); err == nil {
		if !c.confirm("Existing view state found. Do you want to replace it?") {
			fmt.Fprintln(c.Out, "Operation cancelled")
			return nil
		}
		if err := os.RemoveAll(c.DBPath); err != nil {
			return fmt.Errorf("failed to remove existing view state: %w", err)
		}
	}

	if err := os.MkdirAll(c.DBPath, 0755); err != nil {
		return fmt.Errorf("failed to create view state directory: %w", err)
	}

	db, err := c.open()
	if err != nil {
		return fmt.Errorf("failed to open view state: %w", err)
	}
	defer db.Close()

	f, err := os.Open(backupFile)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()

	if err := db.Load(f, 4); err != nil {
		return fmt.Errorf("failed to restore view state: %w", err)
	}

	fmt.Fprintln(c.Out, "View state restored successfully")
	return nil
}

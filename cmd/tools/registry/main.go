// cmd/tools/registry/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dinediscover/pkg/registry"
)

const defaultPath = "configs/tool-registry.json"

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "update":
		err = runUpdate(os.Args[2:])
	case "tools":
		err = runTools(os.Args[2:])
	case "help":
		help()
	default:
		help()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runInit(args []string) error {
	cmd := flag.NewFlagSet("init", flag.ExitOnError)
	path := cmd.String("path", defaultPath, "Path to registry file")
	force := cmd.Bool("force", false, "Overwrite an existing file")
	cmd.Parse(args)

	if _, err := os.Stat(*path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", *path)
	}

	reg := registry.Default()
	reg.LastUpdated = time.Now().Format(time.RFC3339)
	if err := save(reg, *path); err != nil {
		return err
	}
	fmt.Printf("Wrote built-in registry to %s\n", *path)
	return nil
}

func runValidate(args []string) error {
	cmd := flag.NewFlagSet("validate", flag.ExitOnError)
	path := cmd.String("path", defaultPath, "Path to registry file")
	cmd.Parse(args)

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return err
	}
	if _, ok := reg.Find(registry.RestaurantSearchTool); !ok {
		return fmt.Errorf("registry has no %q tool", registry.RestaurantSearchTool)
	}
	for _, taskType := range []string{registry.TaskParseSearchRequest, registry.TaskQueryPlaces, registry.TaskRecordSearch} {
		if _, ok := reg.FindActivity(taskType); !ok {
			fmt.Printf("warning: no activity for task type %s; worker-manager will not start it\n", taskType)
		}
	}
	fmt.Printf("Registry validation passed. Found %d tools and %d activities.\n", len(reg.Tools), len(reg.Activities))
	return nil
}

func runUpdate(args []string) error {
	cmd := flag.NewFlagSet("update", flag.ExitOnError)
	path := cmd.String("path", defaultPath, "Path to registry file")
	id := cmd.String("id", "", "Activity ID to update")
	field := cmd.String("field", "", "Field to update (displayName, description, timeout, retries)")
	value := cmd.String("value", "", "New value for the field")
	cmd.Parse(args)

	if *id == "" || *field == "" || *value == "" {
		cmd.Usage()
		return fmt.Errorf("id, field and value are required")
	}

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return err
	}

	idx := -1
	for i := range reg.Activities {
		if reg.Activities[i].ID == *id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("activity with ID %s not found", *id)
	}

	a := &reg.Activities[idx]
	switch *field {
	case "displayName":
		a.DisplayName = *value
	case "description":
		a.Description = *value
	case "timeout":
		if _, err := time.ParseDuration(*value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		a.Timeout = *value
	case "retries":
		retries, err := strconv.Atoi(*value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		a.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", *field)
	}

	reg.LastUpdated = time.Now().Format(time.RFC3339)
	if err := reg.Validate(); err != nil {
		return err
	}
	if err := save(reg, *path); err != nil {
		return err
	}
	fmt.Printf("Updated activity %s, field %s to %s\n", *id, *field, *value)
	return nil
}

// runTools prints the tools in the OpenAI function-calling format sent to the LLM.
func runTools(args []string) error {
	cmd := flag.NewFlagSet("tools", flag.ExitOnError)
	path := cmd.String("path", "", "Path to registry file (built-in registry when empty)")
	cmd.Parse(args)

	reg, err := registry.LoadOrDefault(*path)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(reg.OpenAITools(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func save(reg *registry.ToolRegistry, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return reg.Save(path)
}

func help() {
	fmt.Print(`
Usage: registry <command> [flags]

Commands:
  init      Write the built-in tool registry to a file
  validate  Validate a registry file
  update    Update an activity field
  tools     Print the tool definitions sent to the LLM
  help      Show this help message

Examples:
  registry init -path configs/tool-registry.json
  registry update -id query-places -field timeout -value 15s
  registry validate -path configs/tool-registry.json

Use 'registry <command> -h' for more information about a command.
` + "\n")
}

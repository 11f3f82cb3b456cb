// cmd/tools/registry-check/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"go.uber.org/multierr"

	"ai2c-dataviz/pkg/registry"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	inputCmd := flag.NewFlagSet("check-input", flag.ExitOnError)

	validatePath := validateCmd.String("path", "configs/activity-registry.json", "Path to registry file")
	listPath := listCmd.String("path", "configs/activity-registry.json", "Path to registry file")
	inputPath := inputCmd.String("path", "configs/activity-registry.json", "Path to registry file")
	taskType := inputCmd.String("taskType", "", "Task type whose input schema to check against")
	varsFile := inputCmd.String("vars", "", "JSON file with the job variables")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateRegistry(*validatePath); err != nil {
			fmt.Println("Registry validation failed:")
			for _, e := range multierr.Errors(err) {
				fmt.Printf("  - %v\n", e)
			}
			os.Exit(1)
		}

	case "list":
		listCmd.Parse(os.Args[2:])
		if err := listActivities(*listPath); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

	case "check-input":
		inputCmd.Parse(os.Args[2:])
		if *taskType == "" || *varsFile == "" {
			fmt.Println("Error: taskType and vars are required for check-input.")
			inputCmd.Usage()
			os.Exit(1)
		}
		if err := checkInput(*inputPath, *taskType, *varsFile); err != nil {
			fmt.Printf("Input rejected: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Input accepted.")

	case "help":
		fallthrough
	default:
		help()
	}
}

func validateRegistry(path string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	errs := reg.Validate()
	schemas, err := reg.CompileSchemas()
	errs = multierr.Append(errs, err)
	if errs != nil {
		return errs
	}

	fmt.Printf("Registry validation passed. Found %d activities, %d input schemas.\n", len(reg.Activities), len(schemas))
	return nil
}

func listActivities(path string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	activities := append([]registry.Activity(nil), reg.Activities...)
	sort.Slice(activities, func(i, j int) bool { return activities[i].TaskType < activities[j].TaskType })
	for _, a := range activities {
		fmt.Printf("%-26s %-8s retries=%d  %s\n", a.TaskType, a.Timeout, a.Retries, a.DisplayName)
	}
	return nil
}

func checkInput(path, taskType, varsFile string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	schemas, err := reg.CompileSchemas()
	if err != nil {
		return err
	}
	s, ok := schemas[taskType]
	if !ok {
		return fmt.Errorf("no input schema for task type %s", taskType)
	}

	doc, err := os.ReadFile(varsFile)
	if err != nil {
		return fmt.Errorf("failed to read variables: %w", err)
	}
	res, err := s.ValidateBytes(doc)
	if err != nil {
		return err
	}
	if !res.Valid {
		return fmt.Errorf("%s", res.Summary())
	}
	return nil
}

func help() {
	fmt.Print(`
Usage: registry-check <command> [flags]

Commands:
  validate     Validate the registry and compile every input schema
  list         List the registered activities
  check-input  Validate a job variables file against an activity's input schema
  help         Show this help message

Examples:
  registry-check validate -path configs/activity-registry.json
  registry-check list
  registry-check check-input -taskType aggregate-pivot -vars vars.json

Use 'registry-check <command> -h' for more information about a command.
`)
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a quill.yml for the current directory",
	Long:  "Interactively create a Quill project configuration with a database connection and a first mapper document",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat("quill.yml"); err == nil {
			return fmt.Errorf("quill.yml already exists")
		}

		var projectName string
		if err := survey.AskOne(&survey.Input{
			Message: "Project name:",
		}, &projectName, survey.WithValidator(survey.Required)); err != nil {
			return err
		}

		var driver string
		if err := survey.AskOne(&survey.Select{
			Message: "Database driver:",
			Options: []string{"sqlite3", "postgres", "pgx"},
			Default: "sqlite3",
		}, &driver); err != nil {
			return err
		}

		var dsn string
		if err := survey.AskOne(&survey.Input{
			Message: "Connection string:",
			Default: defaultDSN(driver, projectName),
		}, &dsn); err != nil {
			return err
		}

		content := fmt.Sprintf(`project_name: %s

database:
  driver: %s
  dsn: %q

mapper:
  sources:
    - mappers/%s.xml

logging:
  level: info
`, projectName, driver, dsn, projectName)

		if err := os.WriteFile("quill.yml", []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write quill.yml: %w", err)
		}
		if err := os.MkdirAll("mappers", 0755); err != nil {
			return fmt.Errorf("failed to create mappers directory: %w", err)
		}

		mapperPath := fmt.Sprintf("mappers/%s.xml", projectName)
		if _, err := os.Stat(mapperPath); os.IsNotExist(err) {
			mapper := fmt.Sprintf(`<mapper namespace=%q>

  <select id="ping" resultType="int">
    SELECT 1
  </select>

</mapper>
`, projectName)
			if err := os.WriteFile(mapperPath, []byte(mapper), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", mapperPath, err)
			}
		}

		success := color.New(color.Bold, color.FgGreen)
		success.Println("✓ Project initialized")
		fmt.Printf("  quill.yml\n  %s\n\n", mapperPath)
		fmt.Println("Next: quill validate")
		return nil
	},
}

func defaultDSN(driver, project string) string {
	switch driver {
	case "postgres", "pgx":
		return fmt.Sprintf("postgres://localhost:5432/%s?sslmode=disable", strings.ToLower(project))
	default:
		return fmt.Sprintf("%s.db", strings.ToLower(project))
	}
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scatter/pkg/schema"
)

// schemaCommand creates the schema command.
func (c *CLI) schemaCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "schema [id]",
		Short: "List the schemas of a declaration file",
		Long: `List the resolved schemas of a JSON, TOML or YAML declaration file.

With an id or path query (e.g. "task" or "task/properties/subTasks"), the
effective properties of that schema are shown instead.`,
		Example: `  # List every schema of the configured file
  scatter schema

  # Describe one schema of another file
  scatter schema task --file schema.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				c.Config.Schema = file
				c.Config.dir = "."
			}
			if c.Config.SchemaPath() == "" {
				return fmt.Errorf("no schema file: set schema in %s or pass --file", defaultConfigFile)
			}
			reg, err := c.Config.registry()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return describeSchema(reg, args[0])
			}
			listSchemas(reg)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "schema declaration file (overrides config)")
	return cmd
}

func listSchemas(reg *schema.Registry) {
	rows := make([][]string, 0, reg.Len())
	for _, id := range reg.IDs() {
		s := reg.Get(id)
		rows = append(rows, []string{id, s.Type(), joinIDs(s.Extends()), schemaShape(s)})
	}
	printTable([]string{"Schema", "Type", "Extends", "Shape"}, rows)
	printDetail("%d schemas", reg.Len())
}

func describeSchema(reg *schema.Registry, query string) error {
	s := reg.Get(query)
	if s == nil {
		return fmt.Errorf("schema %q not found", query)
	}

	fmt.Fprintln(stdout, StyleTitle.Render(s.ID()))
	printKeyValue("type", s.Type())
	if t := s.Title(); t != "" {
		printKeyValue("title", t)
	}
	if ext := s.Extends(); len(ext) > 0 {
		printKeyValue("extends", joinIDs(ext))
	}

	switch {
	case s.IsArray():
		printKeyValue("items", describeRef(s.Items()))
	case s.IsObject():
		var rows [][]string
		for _, name := range s.PropertyNames() {
			rows = append(rows, []string{name, describeRef(s.Property(name))})
		}
		for _, pattern := range s.PatternProperties() {
			rows = append(rows, []string{"/" + pattern + "/", "(pattern)"})
		}
		if len(rows) > 0 {
			printTable([]string{"Property", "Schema"}, rows)
		}
	}
	return nil
}

// describeRef shows primitives by type and everything else by id.
func describeRef(s *schema.Schema) string {
	if s == nil {
		return "-"
	}
	if s.IsPrimitive() {
		return s.Type()
	}
	return s.ID() + " (" + s.Type() + ")"
}

func schemaShape(s *schema.Schema) string {
	switch {
	case s.IsArray():
		return "items: " + describeRef(s.Items())
	case s.IsObject():
		n := len(s.PropertyNames())
		if p := len(s.PatternProperties()); p > 0 {
			return fmt.Sprintf("%d props, %d patterns", n, p)
		}
		return fmt.Sprintf("%d props", n)
	}
	return ""
}

func joinIDs(schemas []*schema.Schema) string {
	ids := make([]string, len(schemas))
	for i, s := range schemas {
		ids[i] = s.ID()
	}
	return strings.Join(ids, ", ")
}

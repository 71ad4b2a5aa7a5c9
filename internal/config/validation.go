package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// SummaryEnabled reports whether AI channel summaries should be generated.
func (c *Config) SummaryEnabled() bool {
	return c.AI.APIKey != ""
}

// ValidateForWatch checks the additional fields watch mode needs beyond the
// base constraints: at least one enabled task with a schedule, and a target
// guild for the archive task.
func (c *Config) ValidateForWatch() error {
	enabled := 0
	for name, task := range c.Schedule.Tasks {
		if !task.Enabled {
			continue
		}
		if task.Schedule == "" {
			return fmt.Errorf("task %q is enabled but has no schedule", name)
		}
		enabled++
	}
	if enabled == 0 {
		return fmt.Errorf("watch mode requires at least one enabled scheduled task")
	}

	if task, ok := c.Schedule.Tasks["archive"]; ok && task.Enabled && c.Schedule.GuildID == "" {
		return fmt.Errorf("scheduled archive task requires schedule.guild_id")
	}

	return nil
}

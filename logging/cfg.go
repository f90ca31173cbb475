package logging

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the configuration for the logging subsystem.
type Config struct {
	// Level is the sink logging level.
	//
	// Subsystem levels do the fine-grained filtering, so this is usually
	// left at "debug".
	Level zapcore.Level `yaml:"level"`
	// Recent is the number of gathered-but-not-logged messages kept in
	// memory for later dumping.
	Recent int `yaml:"recent"`
	// Subsystems are per-subsystem level overrides, applied in order.
	Subsystems Rules `yaml:"subsystems"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:      zapcore.DebugLevel,
		Recent:     500,
		Subsystems: Rules{},
	}
}

// LoadConfig loads configuration from a YAML file at the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses a YAML configuration on top of the default one.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}
	if cfg.Recent < 0 {
		return nil, fmt.Errorf("recent buffer size must be non-negative, got %d", cfg.Recent)
	}

	return cfg, nil
}

// Levels is a pair of subsystem levels.
//
// In text form it is either "L", which sets both levels to L, or "L/G".
type Levels struct {
	Log    uint8
	Gather uint8
}

// ParseLevels parses levels from their text form.
func ParseLevels(s string) (Levels, error) {
	logStr, gatherStr, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		gatherStr = logStr
	}

	log, err := parseLevel(logStr)
	if err != nil {
		return Levels{}, fmt.Errorf("invalid log level in %q: %w", s, err)
	}
	gather, err := parseLevel(gatherStr)
	if err != nil {
		return Levels{}, fmt.Errorf("invalid gather level in %q: %w", s, err)
	}

	return Levels{Log: log, Gather: gather}, nil
}

func parseLevel(s string) (uint8, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

// String returns the "L/G" form.
func (m Levels) String() string {
	return fmt.Sprintf("%d/%d", m.Log, m.Gather)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Levels) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: levels must be a scalar", node.Line)
	}

	v, err := ParseLevels(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}

	*m = v
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (m Levels) MarshalYAML() (any, error) {
	return m.String(), nil
}

// Rule assigns levels to every subsystem whose name matches a glob pattern.
type Rule struct {
	Pattern string
	Levels  Levels
}

// Rules is an ordered list of rules.
//
// In YAML it is a mapping from pattern to levels; the mapping order is kept,
// so later rules override earlier ones.
type Rules []Rule

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Rules) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: subsystem levels must be a mapping", node.Line)
	}

	rules := make(Rules, 0, len(node.Content)/2)
	for idx := 0; idx+1 < len(node.Content); idx += 2 {
		key, value := node.Content[idx], node.Content[idx+1]

		levels := Levels{}
		if err := value.Decode(&levels); err != nil {
			return fmt.Errorf("subsystem %q: %w", key.Value, err)
		}

		rules = append(rules, Rule{Pattern: key.Value, Levels: levels})
	}

	*m = rules
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (m Rules) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, rule := range m {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: rule.Pattern},
			&yaml.Node{Kind: yaml.ScalarNode, Value: rule.Levels.String()},
		)
	}

	return node, nil
}

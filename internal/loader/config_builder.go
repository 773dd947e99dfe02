package loader

import (
	"path/filepath"
	"reflect"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/quillmap/quill/internal/node"
	"github.com/quillmap/quill/internal/reflection"
)

// ConfigBuilder parses a <configuration> document: global properties,
// settings, extra type aliases, the environment to execute against, and the
// list of mapper sources to load.
type ConfigBuilder struct {
	config   *Configuration
	root     *node.Node
	resource string
	vars     map[string]string
}

// NewConfigBuilder wraps a parsed configuration document.
func NewConfigBuilder(config *Configuration, resource string, root *node.Node) *ConfigBuilder {
	return &ConfigBuilder{
		config:   config,
		root:     root,
		resource: resource,
		vars:     root.Vars(),
	}
}

// Vars returns the property table accumulated while parsing, for reuse when
// loading the mapper sources the document names.
func (b *ConfigBuilder) Vars() map[string]string { return b.vars }

// MapperResources returns the mapper source paths the document names,
// resolved relative to the configuration file.
func (b *ConfigBuilder) MapperResources() []string {
	var out []string
	dir := filepath.Dir(b.resource)
	for _, m := range b.root.ChildrenByPath("mappers/mapper") {
		if res := m.StringAttr("resource", ""); res != "" {
			if !filepath.IsAbs(res) {
				res = filepath.Join(dir, res)
			}
			out = append(out, res)
		}
	}
	return out
}

// Parse applies the document to the configuration. Mapper sources are not
// loaded here; the caller iterates MapperResources so it controls file
// access.
func (b *ConfigBuilder) Parse() error {
	if b.root.Name() != "configuration" {
		return configErrorf(b.resource, "expected <configuration> root element, found <%s>", b.root.Name())
	}
	b.propertiesElement()
	if err := b.settingsElement(); err != nil {
		return err
	}
	if err := b.typeAliasesElement(); err != nil {
		return err
	}
	if err := b.environmentsElement(); err != nil {
		return err
	}
	return nil
}

// propertiesElement merges <property name value> entries into the variable
// table used for ${} substitution. Values handed in by the caller win over
// values declared in the document.
func (b *ConfigBuilder) propertiesElement() {
	props := b.root.ChildByPath("properties")
	if props == nil {
		return
	}
	declared := props.ChildrenAsSettings()
	for name, value := range declared {
		if _, ok := b.vars[name]; !ok {
			b.vars[name] = value
		}
	}
}

// settingsElement validates each setting name against the Settings type
// before assigning, so a typo fails the load instead of silently keeping
// the default.
func (b *ConfigBuilder) settingsElement() error {
	settings := b.root.ChildByPath("settings")
	if settings == nil {
		return nil
	}
	entries := settings.ChildrenAsSettings()
	if len(entries) == 0 {
		return nil
	}
	meta, err := reflection.MetaFor(reflect.TypeOf(b.config.Settings), b.config.Descriptors())
	if err != nil {
		return err
	}
	target := reflection.MetaObjectFor(&b.config.Settings, b.config.Descriptors())
	for name, raw := range entries {
		prop, ok := meta.Descriptor().FindPropertyName(name)
		if !ok || !meta.HasSetter(prop) {
			return configErrorf(b.resource, "unknown setting %q", name)
		}
		typ, err := meta.SetterType(prop)
		if err != nil {
			return err
		}
		value, err := coerceSetting(raw, typ)
		if err != nil {
			return configErrorf(b.resource, "setting %q: invalid value %q", name, raw)
		}
		if err := target.SetValue(prop, value); err != nil {
			return err
		}
	}
	b.config.Logger().Debug("settings applied",
		zap.String("resource", b.resource),
		zap.Int("count", len(entries)))
	return nil
}

func coerceSetting(raw string, typ reflect.Type) (interface{}, error) {
	switch typ.Kind() {
	case reflect.Bool:
		return cast.ToBoolE(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return cast.ToIntE(raw)
	case reflect.Int64:
		return cast.ToInt64E(raw)
	case reflect.Float32, reflect.Float64:
		return cast.ToFloat64E(raw)
	default:
		return raw, nil
	}
}

// typeAliasesElement registers additional names for types already known to
// the alias registry. New Go types enter the registry programmatically; the
// document can only rename what the program registered.
func (b *ConfigBuilder) typeAliasesElement() error {
	aliases := b.root.ChildByPath("typeAliases")
	if aliases == nil {
		return nil
	}
	for _, child := range aliases.ChildrenByPath("typeAlias") {
		alias := child.StringAttr("alias", "")
		source := child.StringAttr("type", "")
		if alias == "" || source == "" {
			return configErrorf(b.resource, "<typeAlias> requires alias and type attributes")
		}
		typ, ok := b.config.Aliases().Resolve(source)
		if !ok {
			return configErrorf(b.resource, "typeAlias %q references unknown type %q", alias, source)
		}
		if err := b.config.Aliases().Register(alias, typ); err != nil {
			return configErrorf(b.resource, "typeAlias %q: %v", alias, err)
		}
	}
	return nil
}

// environmentsElement picks the environment named by the default attribute.
func (b *ConfigBuilder) environmentsElement() error {
	envs := b.root.ChildByPath("environments")
	if envs == nil {
		return nil
	}
	def := envs.StringAttr("default", "")
	if def == "" {
		return configErrorf(b.resource, "<environments> requires a default attribute")
	}
	for _, env := range envs.ChildrenByPath("environment") {
		id := env.StringAttr("id", "")
		if id != def {
			continue
		}
		ds := env.ChildByPath("dataSource")
		if ds == nil {
			return configErrorf(b.resource, "environment %q has no <dataSource>", id)
		}
		b.config.Environment = Environment{
			ID:     id,
			Driver: ds.StringAttr("driver", ""),
			DSN:    ds.StringAttr("dsn", ""),
		}
		return nil
	}
	return configErrorf(b.resource, "default environment %q not declared", def)
}

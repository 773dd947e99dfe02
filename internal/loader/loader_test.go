package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	ID    int64
	Name  string
	Email string
}

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	ld := New()
	require.NoError(t, ld.RegisterType("user", user{}))
	return ld
}

func TestLoader_SingleMapper(t *testing.T) {
	ld := newTestLoader(t)
	doc := `
<mapper namespace="users">
  <select id="findById" resultType="user">
    SELECT id, name, email FROM users WHERE id = #{id}
  </select>
  <insert id="create" parameterType="user">
    INSERT INTO users (name, email) VALUES (#{name}, #{email})
  </insert>
</mapper>`
	require.NoError(t, ld.LoadMapperBytes("users.xml", []byte(doc)))
	require.NoError(t, ld.Finish())

	config := ld.Configuration()
	ms, ok := config.MappedStatement("users.findById")
	require.True(t, ok)
	assert.Equal(t, "SELECT id, name, email FROM users WHERE id = ?", ms.Source.SQL())
	assert.True(t, ms.UseCache)
	assert.False(t, ms.FlushCache)
	assert.Equal(t, "users.xml", ms.Resource)

	ins, ok := config.MappedStatement("users.create")
	require.True(t, ok)
	assert.False(t, ins.UseCache)
	assert.True(t, ins.FlushCache)
	require.Len(t, ins.Source.BoundSQL().Parameters, 2)
}

func TestLoader_ResultMapWithExtends(t *testing.T) {
	ld := newTestLoader(t)
	doc := `
<mapper namespace="users">
  <resultMap id="base" type="user">
    <id property="ID" column="id"/>
    <result property="name" column="user_name"/>
  </resultMap>
  <resultMap id="full" type="user" extends="base">
    <result property="name" column="display_name"/>
    <result property="email" column="email"/>
  </resultMap>
  <select id="findFull" resultMap="full">
    SELECT * FROM users
  </select>
</mapper>`
	require.NoError(t, ld.LoadMapperBytes("users.xml", []byte(doc)))
	require.NoError(t, ld.Finish())

	config := ld.Configuration()
	rm, ok := config.ResultMap("users.full")
	require.True(t, ok)
	// parent mappings come first, minus the overridden property
	require.Len(t, rm.Mappings, 3)
	assert.Equal(t, "ID", rm.Mappings[0].Property)
	assert.Equal(t, "display_name", rm.Mappings[1].Column)
	assert.Equal(t, "email", rm.Mappings[2].Property)

	ms, ok := config.MappedStatement("users.findFull")
	require.True(t, ok)
	require.NotNil(t, ms.ResultMap)
	assert.Equal(t, "users.full", ms.ResultMap.ID)
}

func TestLoader_ForwardReferenceWithinDocument(t *testing.T) {
	// the extending map appears before its parent; the end-of-source pass
	// must resolve it
	ld := newTestLoader(t)
	doc := `
<mapper namespace="users">
  <resultMap id="full" type="user" extends="base">
    <result property="email" column="email"/>
  </resultMap>
  <resultMap id="base" type="user">
    <id property="ID" column="id"/>
  </resultMap>
</mapper>`
	require.NoError(t, ld.LoadMapperBytes("users.xml", []byte(doc)))
	require.NoError(t, ld.Finish())

	rm, ok := ld.Configuration().ResultMap("users.full")
	require.True(t, ok)
	assert.Len(t, rm.Mappings, 2)
}

func TestLoader_CrossDocumentResolution(t *testing.T) {
	// users.xml loads first and waits on shared.columns from common.xml
	ld := newTestLoader(t)
	users := `
<mapper namespace="users">
  <select id="findAll" resultType="map">
    SELECT <include refid="shared.columns"/> FROM users
  </select>
</mapper>`
	common := `
<mapper namespace="shared">
  <sql id="columns">id, name, email</sql>
</mapper>`

	require.NoError(t, ld.LoadMapperBytes("users.xml", []byte(users)))
	_, ok := ld.Configuration().MappedStatement("users.findAll")
	assert.False(t, ok)

	require.NoError(t, ld.LoadMapperBytes("common.xml", []byte(common)))
	require.NoError(t, ld.Finish())

	ms, ok := ld.Configuration().MappedStatement("users.findAll")
	require.True(t, ok)
	assert.Equal(t, "SELECT id, name, email FROM users", ms.Source.SQL())
}

func TestLoader_CacheAndCacheRef(t *testing.T) {
	ld := newTestLoader(t)
	orders := `
<mapper namespace="orders">
  <cache-ref namespace="users"/>
  <select id="findAll" resultType="map">SELECT * FROM orders</select>
</mapper>`
	users := `
<mapper namespace="users">
  <cache eviction="LRU" size="64"/>
  <select id="findAll" resultType="map">SELECT * FROM users</select>
</mapper>`

	// orders loads first; its cache-ref waits for the users cache
	require.NoError(t, ld.LoadMapperBytes("orders.xml", []byte(orders)))
	require.NoError(t, ld.LoadMapperBytes("users.xml", []byte(users)))
	require.NoError(t, ld.Finish())

	config := ld.Configuration()
	own, ok := config.Cache("users")
	require.True(t, ok)
	delegated, ok := config.Cache("orders")
	require.True(t, ok)
	assert.Same(t, own, delegated)
}

func TestLoader_UnresolvedReferenceReported(t *testing.T) {
	ld := newTestLoader(t)
	doc := `
<mapper namespace="users">
  <select id="broken" resultMap="missingMap">SELECT 1</select>
</mapper>`
	require.NoError(t, ld.LoadMapperBytes("users.xml", []byte(doc)))

	err := ld.Finish()
	require.Error(t, err)
	var unresolved *UnresolvedError
	require.ErrorAs(t, err, &unresolved)
	require.Len(t, unresolved.Fragments, 1)
	assert.Equal(t, "users.broken", unresolved.Fragments[0].Identity)
	assert.Equal(t, "users.missingMap", unresolved.Fragments[0].Reference)
}

func TestLoader_MalformedStatements(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"missing namespace", `<mapper><select id="a" resultType="map">SELECT 1</select></mapper>`},
		{"missing id", `<mapper namespace="u"><select resultType="map">SELECT 1</select></mapper>`},
		{"both result attrs", `<mapper namespace="u"><select id="a" resultType="map" resultMap="m">SELECT 1</select></mapper>`},
		{"unknown result type", `<mapper namespace="u"><select id="a" resultType="ghost">SELECT 1</select></mapper>`},
		{"empty cache-ref namespace", `<mapper namespace="u"><cache-ref/><select id="a" resultType="map">SELECT 1</select></mapper>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ld := newTestLoader(t)
			err := ld.LoadMapperBytes(tc.name+".xml", []byte(tc.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoader_DuplicateStatementID(t *testing.T) {
	ld := newTestLoader(t)
	doc := `
<mapper namespace="users">
  <select id="findAll" resultType="map">SELECT 1</select>
  <select id="findAll" resultType="map">SELECT 2</select>
</mapper>`
	err := ld.LoadMapperBytes("users.xml", []byte(doc))
	require.Error(t, err)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoader_DuplicateResourceSkipped(t *testing.T) {
	ld := newTestLoader(t)
	doc := `
<mapper namespace="users">
  <select id="findAll" resultType="map">SELECT 1</select>
</mapper>`
	require.NoError(t, ld.LoadMapperBytes("users.xml", []byte(doc)))
	// loading the same resource again must not report duplicates
	require.NoError(t, ld.LoadMapperBytes("users.xml", []byte(doc)))
	require.NoError(t, ld.Finish())
}

func TestLoader_VariableSubstitution(t *testing.T) {
	ld := New(WithVars(map[string]string{"table": "accounts"}))
	doc := `
<mapper namespace="users">
  <select id="findAll" resultType="map">SELECT * FROM ${table}</select>
</mapper>`
	require.NoError(t, ld.LoadMapperBytes("users.xml", []byte(doc)))
	require.NoError(t, ld.Finish())

	ms, ok := ld.Configuration().MappedStatement("users.findAll")
	require.True(t, ok)
	assert.Equal(t, "SELECT * FROM accounts", ms.Source.SQL())
}

func TestLoader_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	mapper := `
<mapper namespace="users">
  <select id="findAll" resultType="map">SELECT * FROM ${table}</select>
</mapper>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.xml"), []byte(mapper), 0o644))

	configDoc := `
<configuration>
  <properties>
    <property name="table" value="accounts"/>
  </properties>
  <settings>
    <setting name="cacheEnabled" value="false"/>
    <setting name="mapUnderscoreToCamelCase" value="true"/>
  </settings>
  <environments default="dev">
    <environment id="dev">
      <dataSource driver="sqlite3" dsn=":memory:"/>
    </environment>
  </environments>
  <mappers>
    <mapper resource="users.xml"/>
  </mappers>
</configuration>`
	configPath := filepath.Join(dir, "quill-config.xml")
	require.NoError(t, os.WriteFile(configPath, []byte(configDoc), 0o644))

	ld := newTestLoader(t)
	require.NoError(t, ld.LoadConfigFile(configPath))
	require.NoError(t, ld.Finish())

	config := ld.Configuration()
	assert.False(t, config.Settings.CacheEnabled)
	assert.True(t, config.Settings.MapUnderscoreToCamelCase)
	assert.Equal(t, "dev", config.Environment.ID)
	assert.Equal(t, "sqlite3", config.Environment.Driver)

	ms, ok := config.MappedStatement("users.findAll")
	require.True(t, ok)
	assert.Equal(t, "SELECT * FROM accounts", ms.Source.SQL())
}

func TestLoader_UnknownSettingRejected(t *testing.T) {
	dir := t.TempDir()
	configDoc := `
<configuration>
  <settings>
    <setting name="noSuchSetting" value="true"/>
  </settings>
</configuration>`
	configPath := filepath.Join(dir, "quill-config.xml")
	require.NoError(t, os.WriteFile(configPath, []byte(configDoc), 0o644))

	ld := newTestLoader(t)
	err := ld.LoadConfigFile(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "noSuchSetting")
}

func TestTypeAliases(t *testing.T) {
	aliases := NewTypeAliases()

	typ, ok := aliases.Resolve("STRING")
	require.True(t, ok)
	assert.Equal(t, "string", typ.String())

	require.NoError(t, aliases.RegisterValue("user", &user{}))
	typ, ok = aliases.Resolve("User")
	require.True(t, ok)
	assert.Equal(t, "loader.user", typ.String())

	// remapping an alias to a different type fails, same type is a no-op
	require.NoError(t, aliases.RegisterValue("user", user{}))
	assert.Error(t, aliases.RegisterValue("user", 7))
}

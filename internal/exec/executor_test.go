package exec

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillmap/quill/internal/loader"
	"github.com/quillmap/quill/internal/sqlmap"
)

type product struct {
	ID    int64
	Name  string
	Price float64
}

type inventoryRow struct {
	ProductID int64
	UnitPrice float64
}

func newExecutor(t *testing.T, doc string) (*Executor, sqlmock.Sqlmock, *loader.Configuration) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ld := loader.New()
	require.NoError(t, ld.RegisterType("product", product{}))
	require.NoError(t, ld.RegisterType("inventoryRow", inventoryRow{}))
	require.NoError(t, ld.LoadMapperBytes("products.xml", []byte(doc)))
	require.NoError(t, ld.Finish())
	return New(db, ld.Configuration()), mock, ld.Configuration()
}

const productMapper = `
<mapper namespace="products">
  <resultMap id="productMap" type="product" autoMapping="false">
    <id property="ID" column="id"/>
    <result property="Name" column="name"/>
    <result property="Price" column="price"/>
  </resultMap>
  <select id="findAll" resultMap="productMap">
    SELECT id, name, price FROM products
  </select>
  <select id="findByID" resultMap="productMap">
    SELECT id, name, price FROM products WHERE id = #{id}
  </select>
  <select id="findNames" resultType="string">
    SELECT name FROM products
  </select>
  <select id="asMaps" resultType="map">
    SELECT id, name FROM products
  </select>
  <update id="rename">
    UPDATE products SET name = #{name} WHERE id = #{id}
  </update>
</mapper>`

func TestExecutor_SelectListWithResultMap(t *testing.T) {
	e, mock, _ := newExecutor(t, productMapper)
	mock.ExpectQuery("SELECT id, name, price FROM products").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}).
			AddRow(int64(1), "anvil", 99.5).
			AddRow(int64(2), "rope", 12.0))

	rows, err := e.SelectList(context.Background(), "products.findAll", nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, product{ID: 1, Name: "anvil", Price: 99.5}, rows[0])
	assert.Equal(t, product{ID: 2, Name: "rope", Price: 12.0}, rows[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_SelectOneBindsParam(t *testing.T) {
	e, mock, _ := newExecutor(t, productMapper)
	mock.ExpectQuery("SELECT id, name, price FROM products WHERE id = ?").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}).
			AddRow(int64(2), "rope", 12.0))

	// a lone scalar binds the single placeholder directly
	row, err := e.SelectOne(context.Background(), "products.findByID", int64(2))
	require.NoError(t, err)
	assert.Equal(t, product{ID: 2, Name: "rope", Price: 12.0}, row)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_SelectOneNoMatch(t *testing.T) {
	e, mock, _ := newExecutor(t, productMapper)
	mock.ExpectQuery("SELECT id, name, price FROM products WHERE id = ?").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}))

	row, err := e.SelectOne(context.Background(), "products.findByID", int64(9))
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestExecutor_SelectOneTooManyResults(t *testing.T) {
	e, mock, _ := newExecutor(t, productMapper)
	mock.ExpectQuery("SELECT id, name, price FROM products").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}).
			AddRow(int64(1), "anvil", 99.5).
			AddRow(int64(2), "rope", 12.0))

	_, err := e.SelectOne(context.Background(), "products.findAll", nil)
	var tooMany *TooManyResultsError
	require.ErrorAs(t, err, &tooMany)
	assert.Equal(t, 2, tooMany.Count)
}

func TestExecutor_MapParamBinding(t *testing.T) {
	e, mock, _ := newExecutor(t, productMapper)
	mock.ExpectExec("UPDATE products SET name = ? WHERE id = ?").
		WithArgs("sledge", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := e.Update(context.Background(), "products.rename",
		map[string]interface{}{"name": "sledge", "id": int64(3)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_ScalarResultType(t *testing.T) {
	e, mock, _ := newExecutor(t, productMapper)
	mock.ExpectQuery("SELECT name FROM products").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("anvil").
			AddRow("rope"))

	rows, err := e.SelectList(context.Background(), "products.findNames", nil)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"anvil", "rope"}, rows)
}

func TestExecutor_MapResultType(t *testing.T) {
	e, mock, _ := newExecutor(t, productMapper)
	mock.ExpectQuery("SELECT id, name FROM products").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "anvil"))

	rows, err := e.SelectList(context.Background(), "products.asMaps", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]interface{}{"id": int64(1), "name": "anvil"}, rows[0])
}

func TestExecutor_AutoMapUnderscoreColumns(t *testing.T) {
	doc := `
<mapper namespace="inventory">
  <select id="levels" resultType="inventoryRow">
    SELECT product_id, unit_price FROM inventory
  </select>
</mapper>`
	e, mock, config := newExecutor(t, doc)
	config.Settings.MapUnderscoreToCamelCase = true

	mock.ExpectQuery("SELECT product_id, unit_price FROM inventory").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "unit_price"}).
			AddRow(int64(7), 4.25))

	rows, err := e.SelectList(context.Background(), "inventory.levels", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, inventoryRow{ProductID: 7, UnitPrice: 4.25}, rows[0])
}

func TestExecutor_RowBounds(t *testing.T) {
	e, mock, _ := newExecutor(t, productMapper)
	rs := sqlmock.NewRows([]string{"id", "name", "price"})
	for i := int64(1); i <= 5; i++ {
		rs.AddRow(i, "item", 1.0)
	}
	mock.ExpectQuery("SELECT id, name, price FROM products").WillReturnRows(rs)

	rows, err := e.SelectBounded(context.Background(), "products.findAll", nil,
		sqlmap.RowBounds{Offset: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(2), rows[0].(product).ID)
	assert.Equal(t, int64(3), rows[1].(product).ID)
}

func TestExecutor_SelectWithHandler(t *testing.T) {
	e, mock, _ := newExecutor(t, productMapper)
	mock.ExpectQuery("SELECT id, name, price FROM products").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}).
			AddRow(int64(1), "anvil", 99.5).
			AddRow(int64(2), "rope", 12.0))

	var streamed []product
	handler := sqlmap.ResultHandlerFunc(func(row interface{}) error {
		streamed = append(streamed, row.(product))
		return nil
	})
	require.NoError(t, e.SelectWithHandler(context.Background(), "products.findAll", nil, handler))
	require.Len(t, streamed, 2)
	assert.Equal(t, "rope", streamed[1].Name)
}

func TestExecutor_StatementNotFound(t *testing.T) {
	e, _, _ := newExecutor(t, productMapper)

	_, err := e.SelectList(context.Background(), "products.missing", nil)
	var notFound *StatementNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "products.missing", notFound.ID)

	_, err = e.Update(context.Background(), "products.missing", nil)
	assert.ErrorAs(t, err, &notFound)
}

func TestExecutor_KindMismatch(t *testing.T) {
	e, _, _ := newExecutor(t, productMapper)

	_, err := e.SelectList(context.Background(), "products.rename", nil)
	assert.Error(t, err)

	_, err = e.Update(context.Background(), "products.findAll", nil)
	assert.Error(t, err)
}

const cachedMapper = `
<mapper namespace="products">
  <cache/>
  <resultMap id="productMap" type="product" autoMapping="false">
    <id property="ID" column="id"/>
    <result property="Name" column="name"/>
    <result property="Price" column="price"/>
  </resultMap>
  <select id="findAll" resultMap="productMap">
    SELECT id, name, price FROM products
  </select>
  <update id="rename">
    UPDATE products SET name = #{name} WHERE id = #{id}
  </update>
</mapper>`

func TestExecutor_CacheRoundTrip(t *testing.T) {
	e, mock, _ := newExecutor(t, cachedMapper)
	mock.ExpectQuery("SELECT id, name, price FROM products").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}).
			AddRow(int64(1), "anvil", 99.5))

	ctx := context.Background()
	first, err := e.SelectList(ctx, "products.findAll", nil)
	require.NoError(t, err)

	// the second call is served from the namespace cache
	second, err := e.SelectList(ctx, "products.findAll", nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, product{ID: 1, Name: "anvil", Price: 99.5}, second[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_UpdateFlushesNamespaceCache(t *testing.T) {
	e, mock, _ := newExecutor(t, cachedMapper)
	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "name", "price"}).
			AddRow(int64(1), "anvil", 99.5)
	}
	mock.ExpectQuery("SELECT id, name, price FROM products").WillReturnRows(rows())
	mock.ExpectExec("UPDATE products SET name = ? WHERE id = ?").
		WithArgs("sledge", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, name, price FROM products").WillReturnRows(rows())

	ctx := context.Background()
	_, err := e.SelectList(ctx, "products.findAll", nil)
	require.NoError(t, err)

	_, err = e.Update(ctx, "products.rename",
		map[string]interface{}{"name": "sledge", "id": int64(1)})
	require.NoError(t, err)

	// the flush forces the next select back to the database
	_, err = e.SelectList(ctx, "products.findAll", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_FlushPrecedesExecution(t *testing.T) {
	e, mock, _ := newExecutor(t, cachedMapper)
	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "name", "price"}).
			AddRow(int64(1), "anvil", 99.5)
	}
	mock.ExpectQuery("SELECT id, name, price FROM products").WillReturnRows(rows())
	mock.ExpectExec("UPDATE products SET name = ? WHERE id = ?").
		WithArgs("sledge", int64(1)).
		WillReturnError(errors.New("deadlock"))
	mock.ExpectQuery("SELECT id, name, price FROM products").WillReturnRows(rows())

	ctx := context.Background()
	_, err := e.SelectList(ctx, "products.findAll", nil)
	require.NoError(t, err)

	_, err = e.Update(ctx, "products.rename",
		map[string]interface{}{"name": "sledge", "id": int64(1)})
	require.Error(t, err)

	// the cache was flushed before the failed exec, so this hits the database
	_, err = e.SelectList(ctx, "products.findAll", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_HandlerBypassesCache(t *testing.T) {
	e, mock, _ := newExecutor(t, cachedMapper)
	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "name", "price"}).
			AddRow(int64(1), "anvil", 99.5)
	}
	mock.ExpectQuery("SELECT id, name, price FROM products").WillReturnRows(rows())
	mock.ExpectQuery("SELECT id, name, price FROM products").WillReturnRows(rows())

	ctx := context.Background()
	discard := sqlmap.ResultHandlerFunc(func(interface{}) error { return nil })
	require.NoError(t, e.SelectWithHandler(ctx, "products.findAll", nil, discard))
	require.NoError(t, e.SelectWithHandler(ctx, "products.findAll", nil, discard))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_BindParams(t *testing.T) {
	e, _, _ := newExecutor(t, productMapper)

	sig := sqlmap.Signature{Params: []sqlmap.Param{
		{Name: "id"},
		{Name: "name"},
	}}
	bound := e.BindParams(sig, int64(3), "rope")
	m, ok := bound.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(3), m["id"])
	assert.Equal(t, "rope", m["name"])

	// a single unnamed parameter passes through unwrapped
	single := sqlmap.Signature{Params: []sqlmap.Param{{}}}
	assert.Equal(t, int64(3), e.BindParams(single, int64(3)))
}

func TestTxExecutor(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	ld := loader.New()
	require.NoError(t, ld.RegisterType("product", product{}))
	require.NoError(t, ld.LoadMapperBytes("products.xml", []byte(productMapper)))
	require.NoError(t, ld.Finish())
	e := New(db, ld.Configuration())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE products SET name = ? WHERE id = ?").
		WithArgs("sledge", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := e.Begin(ctx, db, nil)
	require.NoError(t, err)
	affected, err := tx.Update(ctx, "products.rename",
		map[string]interface{}{"name": "sledge", "id": int64(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

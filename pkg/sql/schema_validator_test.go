package sql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/apperrors"
)

func TestValidateAgainstSchema_Accepts(t *testing.T) {
	queries := []string{
		`SELECT "cu"."name", SUM("or"."amount") AS "total" FROM "customers" "cu" JOIN "orders" "or" ON "or"."cust_id" = "cu"."id" GROUP BY "cu"."name" ORDER BY "total" DESC LIMIT 5`,
		`SELECT "customers"."name" FROM "customers"`,
		`SELECT c."name" FROM "customers" AS c WHERE c."region" IS NOT NULL`,
		`SELECT "name" FROM customers WHERE "id" IN (SELECT "cust_id" FROM "orders")`,
		`WITH big AS (SELECT "cust_id" FROM "orders" WHERE "amount" > 100) SELECT b."cust_id" FROM big b`,
		`SELECT t."n" FROM (SELECT COUNT(*) AS n FROM "orders") AS t`,
		`SELECT EXTRACT(YEAR FROM "o"."amount") FROM "orders" "o"`,
		`SELECT "o"."id" FROM "orders" "o", "customers" "c" WHERE "o"."cust_id" = "c"."id"`,
		`SELECT "id" FROM "orders" WHERE "amount" IS DISTINCT FROM 0`,
		`SELECT "o".* FROM "public"."orders" "o";`,
		`SELECT 1`,
		`WITH top AS (SELECT "cust_id" FROM "orders") SELECT "cust_id" FROM top`,
		`WITH x AS (SELECT 1 AS n), year AS (SELECT 2 AS n) SELECT * FROM x, year`,
		`SELECT TOP 5 [o].[amount] FROM [orders] [o] ORDER BY [o].[amount] DESC`,
		`SELECT [c].[name] FROM [dbo].[Customers] AS [c]`,
	}

	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			result, err := ValidateAgainstSchema(q, shopSnapshot(), ValidationOptions{})
			require.NoError(t, err)
			assert.True(t, result.Accepted)
		})
	}
}

func TestValidateAgainstSchema_RecordsTables(t *testing.T) {
	result, err := ValidateAgainstSchema(
		`SELECT "c"."name" FROM "orders" "o" JOIN "customers" "c" ON "o"."cust_id" = "c"."id" JOIN "orders" "o2" ON "o2"."id" = "o"."id"`,
		shopSnapshot(), ValidationOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"orders", "customers"}, result.Tables)
}

func TestValidateAgainstSchema_UnknownTable(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		table      string
		suggestion string
	}{
		{"quoted table", `SELECT * FROM "nonexistent_table"`, "nonexistent_table", ""},
		{"bare table", `SELECT * FROM sales`, "sales", ""},
		{"joined table", `SELECT * FROM "orders" "o" JOIN "payments" "p" ON "p"."order_id" = "o"."id"`, "payments", ""},
		{"singular suggestion", `SELECT * FROM "customer"`, "customer", "customers"},
		{"quoted qualifier", `SELECT "invoices"."total" FROM "orders"`, "invoices", ""},
		{"wrong case quoted", `SELECT * FROM "Orders"`, "Orders", "orders"},
		{"bracketed table", `SELECT * FROM [ghost]`, "ghost", ""},
		{"bracketed qualifier", `SELECT [invoices].[total] FROM [orders]`, "invoices", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateAgainstSchema(tt.query, shopSnapshot(), ValidationOptions{})
			require.Error(t, err)
			assert.False(t, result.Accepted)
			assert.ErrorIs(t, err, apperrors.ErrUnknownTable)

			var tableErr *UnknownTableError
			require.True(t, errors.As(err, &tableErr))
			assert.Equal(t, tt.table, tableErr.Table)
			assert.Equal(t, tt.suggestion, tableErr.Suggestion)
		})
	}
}

func TestValidateAgainstSchema_UnknownColumn(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		table  string
		column string
	}{
		{"table qualified", `SELECT "orders"."total" FROM "orders"`, "orders", "total"},
		{"alias qualified", `SELECT "o"."email" FROM "orders" "o"`, "orders", "email"},
		{"column on wrong table", `SELECT "c"."cust_id" FROM "customers" "c"`, "customers", "cust_id"},
		{"in join condition", `SELECT 1 FROM "orders" "o" JOIN "customers" "c" ON "o"."customer_id" = "c"."id"`, "orders", "customer_id"},
		{"bracketed", `SELECT [o].[email] FROM [orders] [o]`, "orders", "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateAgainstSchema(tt.query, shopSnapshot(), ValidationOptions{})
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUnknownColumn)

			var colErr *UnknownColumnError
			require.True(t, errors.As(err, &colErr))
			assert.Equal(t, tt.table, colErr.Table)
			assert.Equal(t, tt.column, colErr.Column)
		})
	}
}

func TestValidateAgainstSchema_JoinWarnings(t *testing.T) {
	t.Run("declared edge in either direction", func(t *testing.T) {
		for _, q := range []string{
			`SELECT 1 FROM "orders" "o" JOIN "customers" "c" ON "o"."cust_id" = "c"."id"`,
			`SELECT 1 FROM "customers" "c" JOIN "orders" "o" ON "c"."id" = "o"."cust_id"`,
		} {
			result, err := ValidateAgainstSchema(q, shopSnapshot(), ValidationOptions{})
			require.NoError(t, err)
			assert.Empty(t, result.Warnings)
		}
	})

	t.Run("undeclared join warns but is accepted", func(t *testing.T) {
		q := `SELECT 1 FROM "orders" "o" JOIN "customers" "c" ON "o"."id" = "c"."id"`

		result, err := ValidateAgainstSchema(q, shopSnapshot(), ValidationOptions{})
		require.NoError(t, err)
		assert.True(t, result.Accepted)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, WarnUnrecognizedJoin, result.Warnings[0].Code)
		assert.Contains(t, result.Warnings[0].Message, "orders.id = customers.id")
	})

	t.Run("strict mode rejects", func(t *testing.T) {
		q := `SELECT 1 FROM "orders" "o" JOIN "customers" "c" ON "o"."id" = "c"."id"`

		result, err := ValidateAgainstSchema(q, shopSnapshot(), ValidationOptions{RejectUnrecognizedJoins: true})
		require.Error(t, err)
		assert.False(t, result.Accepted)
		assert.ErrorIs(t, err, apperrors.ErrUnrecognizedJoin)
	})

	t.Run("composite condition checks each equality", func(t *testing.T) {
		q := `SELECT 1 FROM "orders" "o" LEFT JOIN "customers" "c" ON "o"."cust_id" = "c"."id" AND "c"."region" = 'EU' WHERE "o"."amount" > 0`

		result, err := ValidateAgainstSchema(q, shopSnapshot(), ValidationOptions{})
		require.NoError(t, err)
		assert.Empty(t, result.Warnings)
	})
}

func TestValidateAgainstSchema_RejectsUnsafe(t *testing.T) {
	for _, q := range []string{
		`DELETE FROM "orders"`,
		`SELECT 1; DROP TABLE "orders"`,
	} {
		result, err := ValidateAgainstSchema(q, shopSnapshot(), ValidationOptions{})
		require.Error(t, err)
		assert.False(t, result.Accepted)
		assert.ErrorIs(t, err, apperrors.ErrUnsafeStatement)
	}
}

func TestValidateAgainstSchema_Warnings(t *testing.T) {
	t.Run("unresolved bare qualifier", func(t *testing.T) {
		result, err := ValidateAgainstSchema(`SELECT x."id" FROM "orders"`, shopSnapshot(), ValidationOptions{})
		require.NoError(t, err)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, WarnUnresolvedQualifier, result.Warnings[0].Code)
	})

	t.Run("suspicious literal", func(t *testing.T) {
		result, err := ValidateAgainstSchema(`SELECT "id" FROM "customers" WHERE "name" = ''' OR ''1''=''1'`, shopSnapshot(), ValidationOptions{})
		require.NoError(t, err)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, WarnSuspiciousLiteral, result.Warnings[0].Code)
	})
}

func TestValidateAgainstSchema_DoesNotMutate(t *testing.T) {
	q := `SELECT "id" FROM "orders";`
	_, err := ValidateAgainstSchema(q, shopSnapshot(), ValidationOptions{})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id" FROM "orders";`, q)
}

func TestSanitizeThenValidate_EndToEnd(t *testing.T) {
	raw := "```sql\nSELECT cu.name, SUM(\"or\".amount) AS total\nFROM customers cu\nJOIN orders \"or\" ON \"or\".cust_id = cu.id\nGROUP BY cu.name\nORDER BY total DESC\nLIMIT 5;\n```"

	sanitized, err := Sanitize(raw, shopSnapshot())
	require.NoError(t, err)
	assert.Contains(t, sanitized, `FROM "customers" cu`)
	assert.Contains(t, sanitized, `"or"."cust_id" = cu."id"`)

	result, err := ValidateAgainstSchema(sanitized, shopSnapshot(), ValidationOptions{})
	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Empty(t, result.Warnings)
	assert.ElementsMatch(t, []string{"customers", "orders"}, result.Tables)
}

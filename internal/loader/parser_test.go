package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const goodCSV = `doc_id,item,category,amount,price,discount
D1,Bread,Bakery,2,3.50,0.00
D1,Milk,Dairy,1,1.20,0.10
D2,Soap,Household,3,2.00,0.00
`

func TestFindSourceFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "12_3.csv", goodCSV)
	writeFile(t, dir, "1_1.csv", goodCSV)
	writeFile(t, dir, "notes.txt", "not a load file")
	writeFile(t, dir, "12-3.csv", goodCSV)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "processed"), 0o755))

	files, skipped, err := FindSourceFiles(dir)

	require.NoError(t, err)
	require.Len(t, files, 2)
	require.ElementsMatch(t, []string{"notes.txt", "12-3.csv"}, skipped)

	byName := map[string]SourceFile{}
	for _, f := range files {
		byName[f.Name] = f
	}
	require.Equal(t, 12, byName["12_3.csv"].ShopNum)
	require.Equal(t, 3, byName["12_3.csv"].CashNum)
	require.Equal(t, 1, byName["1_1.csv"].ShopNum)
	require.Equal(t, 1, byName["1_1.csv"].CashNum)
}

func TestFindSourceFilesMissingDir(t *testing.T) {
	_, _, err := FindSourceFiles(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "12_3.csv", goodCSV)
	src := SourceFile{Path: path, Name: "12_3.csv", ShopNum: 12, CashNum: 3}

	records, err := ParseFile(src)

	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	require.Equal(t, "D1", first.DocID)
	require.Equal(t, "Bread", first.Item)
	require.Equal(t, "Bakery", first.Category)
	require.Equal(t, 2, first.Amount)
	require.True(t, decimal.RequireFromString("3.50").Equal(first.Price))
	require.True(t, decimal.Zero.Equal(first.Discount))
	require.Equal(t, 12, first.ShopNum)
	require.Equal(t, 3, first.CashNum)
	require.Equal(t, "12_3.csv", first.FileName)
}

func TestParseFileColumnOrderIndependent(t *testing.T) {
	dir := t.TempDir()
	reordered := "price,doc_id,discount,item,amount,category\n9.99,D9,0.50,Pan,1,Kitchen\n"
	path := writeFile(t, dir, "2_1.csv", reordered)

	records, err := ParseFile(SourceFile{Path: path, Name: "2_1.csv", ShopNum: 2, CashNum: 1})

	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "D9", records[0].DocID)
	require.True(t, decimal.RequireFromString("9.99").Equal(records[0].Price))
}

func TestParseFileMissingColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "3_1.csv", "doc_id,item,category,amount,price\nD1,Bread,Bakery,2,3.50\n")

	_, err := ParseFile(SourceFile{Path: path, Name: "3_1.csv", ShopNum: 3, CashNum: 1})

	require.Error(t, err)
	require.Contains(t, err.Error(), `missing column "discount"`)
}

func TestParseFileBadNumbers(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{"bad amount", "D1,Bread,Bakery,two,3.50,0.00", "amount"},
		{"bad price", "D1,Bread,Bakery,2,cheap,0.00", "price"},
		{"bad discount", "D1,Bread,Bakery,2,3.50,none", "discount"},
		{"zero amount", "D1,Bread,Bakery,0,3.50,0.00", "amount must be positive"},
		{"negative price", "D1,Bread,Bakery,2,-3.50,0.00", "price must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeFile(t, dir, "4_2.csv",
				"doc_id,item,category,amount,price,discount\n"+tt.row+"\n")

			_, err := ParseFile(SourceFile{Path: path, Name: "4_2.csv", ShopNum: 4, CashNum: 2})

			require.Error(t, err)
			require.Contains(t, err.Error(), "line 2")
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

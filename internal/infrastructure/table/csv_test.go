package table

import (
	"bytes"
	"strings"
	"testing"

	"github.com/itembuilder/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadUPCs(t *testing.T) {
	input := "\ufeffUPC ,Notes\n012345678905,a\n\n 4005556 ,b\n012345678905,c\n,blank\n"

	upcs, err := ReadUPCs(strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, []string{"012345678905", "4005556", "012345678905"}, upcs)
}

func TestReadUPCs_Errors(t *testing.T) {
	_, err := ReadUPCs(strings.NewReader(""))
	assert.ErrorIs(t, err, domain.ErrInvalidTable)

	_, err = ReadUPCs(strings.NewReader("Barcode\n123\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidTable)
	assert.Contains(t, err.Error(), "UPC")
}

func TestReadUPCs_HeaderOnly(t *testing.T) {
	upcs, err := ReadUPCs(strings.NewReader("UPC\n"))

	require.NoError(t, err)
	assert.NotNil(t, upcs)
	assert.Empty(t, upcs)
}

func TestReadCategoryMapping(t *testing.T) {
	input := `Category,Sub-Cat 1,Sub-Cat 2,Sub-Cat 3
Games,Puzzle,Wooden,
Games,puzzle box,,
Toys,,,
Outdoor,Kites,Stunt,Dual Line
`
	entries, err := ReadCategoryMapping(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, domain.CategoryMappingEntry{Category: "Games", SubCat1: "Puzzle", SubCat2: "Wooden"}, entries[0])
	assert.Equal(t, "puzzle box", entries[1].SubCat1)
	assert.Equal(t, "", entries[2].SubCat1)
	assert.Equal(t, domain.CategoryMappingEntry{Category: "Outdoor", SubCat1: "Kites", SubCat2: "Stunt", SubCat3: "Dual Line"}, entries[3])
}

func TestReadCategoryMapping_OptionalSubCategoryColumns(t *testing.T) {
	entries, err := ReadCategoryMapping(strings.NewReader("Category,Sub-Cat 1\nGames,Chess\n"))

	require.NoError(t, err)
	assert.Equal(t, []domain.CategoryMappingEntry{{Category: "Games", SubCat1: "Chess"}}, entries)
}

func TestReadCategoryMapping_MissingColumn(t *testing.T) {
	_, err := ReadCategoryMapping(strings.NewReader("Category\nGames\n"))

	assert.ErrorIs(t, err, domain.ErrInvalidTable)
	assert.Contains(t, err.Error(), "Sub-Cat 1")
}

func TestReadSupplierTable(t *testing.T) {
	input := `UPC,Item Name,Brand,Category,MSRP,Image 1,Cost
111,Rubik's Cube,Spin Master,Puzzles,12.99,cube.jpg,6.00
222,"Chess, Wooden",House of Staunton,Board Games,89.00,,40
111,Duplicate Cube,Other,Other,1.00,dup.jpg,0
`
	records, err := ReadSupplierTable(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, domain.SupplierRecord{
		UPC:      "111",
		ItemName: "Rubik's Cube",
		Brand:    "Spin Master",
		Category: "Puzzles",
		MSRP:     "12.99",
		Image1:   "cube.jpg",
	}, records["111"], "first row for a UPC wins")
	assert.Equal(t, "Chess, Wooden", records["222"].ItemName)
}

func TestWriteItems(t *testing.T) {
	rows := []domain.OutputRow{
		{
			UPC:                 "111",
			ItemName:            "Chess, Wooden",
			Description:         "Chess, Wooden",
			ExtendedDescription: `Chess, Wooden by "Staunton". Part of the Chess collection at MindGames.ca.`,
			Brand:               `"Staunton"`,
			Category:            "Games",
			SubCategory1:        "Chess",
			MSRP:                "89.00",
			Image1:              "a.jpg",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteItems(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "UPC,Item Name,Description,Extended Description,Brand,Category,Sub-Category 1,Sub-Category 2,Sub-Category 3,MSRP,Image 1,Image 2,Image 3", lines[0])
	assert.Equal(t, `111,"Chess, Wooden","Chess, Wooden","Chess, Wooden by ""Staunton"". Part of the Chess collection at MindGames.ca.","""Staunton""",Games,Chess,,,89.00,a.jpg,,`, lines[1])
}

func TestWriteItems_RoundTripsUPCs(t *testing.T) {
	rows := []domain.OutputRow{{UPC: "3"}, {UPC: "1"}, {UPC: "3"}}

	var buf bytes.Buffer
	require.NoError(t, WriteItems(&buf, rows))

	upcs, err := ReadUPCs(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1", "3"}, upcs)
}

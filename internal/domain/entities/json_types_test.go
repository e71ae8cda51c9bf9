package entities

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemsUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "array", input: `[{"product_code":"PRD010","quantity":2}]`, want: `[{"product_code":"PRD010","quantity":2}]`},
		{name: "encoded string", input: `"[{\"product_code\":\"PRD010\",\"quantity\":2}]"`, want: `[{"product_code":"PRD010","quantity":2}]`},
		{name: "null", input: `null`, want: `[]`},
		{name: "empty string", input: `""`, want: `[]`},
		{name: "object", input: `{"product_code":"PRD010"}`, wantErr: true},
		{name: "garbage string", input: `"not json"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var items Items
			err := json.Unmarshal([]byte(tt.input), &items)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidItems)
				return
			}
			require.NoError(t, err)

			out, err := json.Marshal(items)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(out))
		})
	}
}

func TestItemsInsideStruct(t *testing.T) {
	var dto CreateTaskDTO
	err := json.Unmarshal([]byte(`{"task_number":"T100","items":[{"product_code":"PRD010","quantity":2}]}`), &dto)
	require.NoError(t, err)

	out, err := json.Marshal(Task{TaskFields: dto.Fields()})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, []interface{}{map[string]interface{}{"product_code": "PRD010", "quantity": float64(2)}}, decoded["items"])
	assert.Equal(t, TaskStatusPending, decoded["status"])
}

func TestItemsLines(t *testing.T) {
	items, err := NewItems([]byte(`[{"product_code":"A","quantity":2},{"product_id":"p-1","quantity":"3"},{"id":7,"note":"x"}]`))
	require.NoError(t, err)

	lines, err := items.Lines()
	require.NoError(t, err)
	assert.Equal(t, []ItemLine{
		{ProductCode: "A", Quantity: 2},
		{ProductID: "p-1", Quantity: 3},
		{ID: "7"},
	}, lines)

	bad, err := NewItems([]byte(`[{"quantity":true}]`))
	require.NoError(t, err)
	_, err = bad.Lines()
	assert.ErrorIs(t, err, ErrInvalidItems)
}

func TestItemsEqualIgnoresFormatting(t *testing.T) {
	a := Items(`[{"product_code":"A","quantity":2}]`)
	b := Items(`[{"quantity": 2, "product_code": "A"}]`)
	c := Items(`[{"quantity": 3, "product_code": "A"}]`)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.True(t, Items(nil).Equal(Items(`[]`)))
}

func TestItemsScanValue(t *testing.T) {
	var items Items
	require.NoError(t, items.Scan([]byte(`[1,2]`)))
	assert.Equal(t, Items(`[1,2]`), items)

	require.NoError(t, items.Scan(`[3]`))
	v, err := items.Value()
	require.NoError(t, err)
	assert.Equal(t, "[3]", v)

	require.NoError(t, items.Scan(nil))
	v, err = items.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	assert.Error(t, items.Scan(42))
}

func TestSettingsScanValue(t *testing.T) {
	var s Settings
	require.NoError(t, s.Scan([]byte(`{"theme":"dark"}`)))
	assert.Equal(t, Settings{"theme": "dark"}, s)

	require.NoError(t, s.Scan(nil))
	assert.Equal(t, Settings{}, s)

	v, err := Settings(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
}

func TestPriceMarshalsAsNumber(t *testing.T) {
	out, err := json.Marshal(Product{PurchasePrice: decimal.RequireFromString("1.5")})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, 1.5, decoded["purchase_price"])
}

func TestUpdateProductDTO(t *testing.T) {
	var dto UpdateProductDTO
	require.NoError(t, json.Unmarshal([]byte(`{}`), &dto))
	assert.True(t, dto.IsEmpty())
	assert.Empty(t, dto.Fields())

	require.NoError(t, json.Unmarshal([]byte(`{"quantity":5}`), &dto))
	assert.False(t, dto.IsEmpty())
	assert.Equal(t, []Field{{"quantity", 5}}, dto.Fields())

	p := Product{ProductCode: "PRD010", Quantity: 10}
	dto.Apply(&p)
	assert.Equal(t, 5, p.Quantity)
	assert.Equal(t, "PRD010", p.ProductCode)
}

func TestArchiveOfKeepsCompletedAt(t *testing.T) {
	now := Now()
	earlier := now.Add(-1)
	task := Task{ID: "t1", TaskFields: TaskFields{TaskNumber: "T1"}, CompletedAt: &earlier}

	assert.Equal(t, earlier, ArchiveOf(task, now).CompletedAt)

	task.CompletedAt = nil
	h := ArchiveOf(task, now)
	assert.Equal(t, now, h.CompletedAt)
	assert.Equal(t, "t1", h.ID)
	assert.Equal(t, "T1", h.TaskNumber)
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleAdmin))
	assert.True(t, ValidRole(RoleSales))
	assert.True(t, ValidRole(RoleWarehouse))
	assert.False(t, ValidRole("user"))
}

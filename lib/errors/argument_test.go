package errors

import "testing"

func TestUnexpectedArgumentTypeMessage(t *testing.T) {
	type testCase struct {
		err      ErrUnexpectedArgumentType
		expected string
	}

	type payload struct {
		Name string
	}

	tests := []testCase{
		testCase{
			err:      ErrUnexpectedArgumentType{"string", 42},
			expected: "Expected argument of type string, int given",
		},
		testCase{
			err:      ErrUnexpectedArgumentType{"int64", "42"},
			expected: "Expected argument of type int64, string given",
		},
		testCase{
			err:      ErrUnexpectedArgumentType{"string", nil},
			expected: "Expected argument of type string, nil given",
		},
		testCase{
			err: ErrUnexpectedArgumentType{"io.Reader", payload{"foo"}},
			expected: "Expected argument of type io.Reader, " +
				"errors.payload given",
		},
		testCase{
			err: ErrUnexpectedArgumentType{"io.Reader", &payload{"foo"}},
			expected: "Expected argument of type io.Reader, " +
				"*errors.payload given",
		},
	}

	for _, test := range tests {
		if test.err.Error() != test.expected {
			t.Errorf("invalid message: got %q expected %q",
				test.err.Error(), test.expected)
		}
	}
}

func TestTypeName(t *testing.T) {
	if TypeName(nil) != "nil" {
		t.Errorf("invalid type name for nil: %s", TypeName(nil))
	}
	if TypeName([]string{"a"}) != "[]string" {
		t.Errorf("invalid type name for slice: %s", TypeName([]string{"a"}))
	}
	if TypeName(map[string]int{}) != "map[string]int" {
		t.Errorf("invalid type name for map: %s", TypeName(map[string]int{}))
	}
}

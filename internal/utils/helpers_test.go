package utils

import "testing"

func TestValidateVolume(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"120", 120, false},
		{"1", 1, false},
		{"1000", 1000, false},
		{"7,5", 7.5, false},
		{" 250 ", 250, false},
		{"0", 0, true},
		{"1001", 0, true},
		{"-5", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, c := range cases {
		got, err := ValidateVolume(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ValidateVolume(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ValidateVolume(%q): unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ValidateVolume(%q): expected %v, got %v", c.in, c.want, got)
		}
	}
}

func TestValidateWeight(t *testing.T) {
	if _, err := ValidateWeight("8,4"); err != nil {
		t.Errorf("unexpected error for comma decimal: %v", err)
	}
	if _, err := ValidateWeight("0.4"); err == nil {
		t.Error("expected error below 0.5 kg")
	}
	if _, err := ValidateWeight("51"); err == nil {
		t.Error("expected error above 50 kg")
	}
	if got, _ := ValidateWeight("8.4"); got != 8.4 {
		t.Errorf("expected 8.4, got %v", got)
	}
}

func TestValidateHeight(t *testing.T) {
	if got, err := ValidateHeight("72.5"); err != nil || got != 72.5 {
		t.Errorf("expected 72.5, got %v (err %v)", got, err)
	}
	if _, err := ValidateHeight("29"); err == nil {
		t.Error("expected error below 30 cm")
	}
	if _, err := ValidateHeight("151"); err == nil {
		t.Error("expected error above 150 cm")
	}
}

func TestValidateCalories(t *testing.T) {
	if got, err := ValidateCalories("96"); err != nil || got != 96 {
		t.Errorf("expected 96, got %v (err %v)", got, err)
	}
	if got, err := ValidateCalories("0"); err != nil || got != 0 {
		t.Errorf("expected 0 to be valid, got %v (err %v)", got, err)
	}
	if _, err := ValidateCalories("-10"); err == nil {
		t.Error("expected error for negative calories")
	}
}

func TestValidateIdentity(t *testing.T) {
	valid := []string{"1001", "whatsapp:+62812345", "user_01", "a-b+c"}
	for _, id := range valid {
		if err := ValidateIdentity(id); err != nil {
			t.Errorf("ValidateIdentity(%q): unexpected error: %v", id, err)
		}
	}

	invalid := []string{"", "../etc", "a b", "user/01", "has.dot", string(make([]byte, 65))}
	for _, id := range invalid {
		if err := ValidateIdentity(id); err == nil {
			t.Errorf("ValidateIdentity(%q): expected error", id)
		}
	}
}

func TestBuildCategoryKeyboard(t *testing.T) {
	kb := BuildCategoryKeyboard([]string{"mpasi", "susu", "pumping"}, "rec42")

	// Two category rows (2+1 buttons) plus a delete row.
	if len(kb.InlineKeyboard) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(kb.InlineKeyboard))
	}
	if len(kb.InlineKeyboard[0]) != 2 {
		t.Errorf("expected 2 buttons in first row, got %d", len(kb.InlineKeyboard[0]))
	}
	if len(kb.InlineKeyboard[1]) != 1 {
		t.Errorf("expected 1 button in second row, got %d", len(kb.InlineKeyboard[1]))
	}

	first := kb.InlineKeyboard[0][0]
	if first.CallbackData == nil || *first.CallbackData != "category_mpasi_rec42" {
		t.Errorf("unexpected callback data for first button: %v", first.CallbackData)
	}

	deleteRow := kb.InlineKeyboard[2]
	if len(deleteRow) != 1 {
		t.Fatalf("expected single delete button, got %d", len(deleteRow))
	}
	if deleteRow[0].CallbackData == nil || *deleteRow[0].CallbackData != "delete_rec42" {
		t.Errorf("unexpected delete callback data: %v", deleteRow[0].CallbackData)
	}
}

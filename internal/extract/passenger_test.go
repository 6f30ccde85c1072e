package extract

import (
	"testing"

	"github.com/voyagehq/farebot/internal/models"
)

func TestPassengerDetails(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    models.Passenger
		found   bool
	}{
		{
			name:    "standard line",
			message: "John Doe, 15-Mar-1990, A1234567, Indian",
			want: models.Passenger{
				FirstName: "John", LastName: "Doe", DateOfBirth: "1990-03-15",
				Passport: "A1234567", Nationality: "Indian",
			},
			found: true,
		},
		{
			name:    "iso dob and three part name",
			message: "Mary Jane Watson, 1985-12-01, Z9876543, British",
			want: models.Passenger{
				FirstName: "Mary", LastName: "Jane Watson", DateOfBirth: "1985-12-01",
				Passport: "Z9876543", Nationality: "British",
			},
			found: true,
		},
		{
			name:    "slash dob and lowercase passport",
			message: "Anil Kumar, 02/06/1978, m4455667, Indian",
			want: models.Passenger{
				FirstName: "Anil", LastName: "Kumar", DateOfBirth: "1978-06-02",
				Passport: "M4455667", Nationality: "Indian",
			},
			found: true,
		},
		{name: "too few fields", message: "John Doe, 15-Mar-1990, A1234567", found: false},
		{name: "single word name", message: "John, 15-Mar-1990, A1234567, Indian", found: false},
		{name: "bad dob", message: "John Doe, someday, A1234567, Indian", found: false},
		{name: "bad passport", message: "John Doe, 15-Mar-1990, !!!, Indian", found: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, found := PassengerDetails(tc.message)
			if found != tc.found {
				t.Fatalf("PassengerDetails(%q) found=%v, want %v", tc.message, found, tc.found)
			}
			if found && got != tc.want {
				t.Errorf("PassengerDetails(%q) = %+v, want %+v", tc.message, got, tc.want)
			}
		})
	}
}

func TestSSRRequests(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []SSRRequest
	}{
		{
			name:    "meal and seat",
			message: "vegetarian meal and a window seat please",
			want: []SSRRequest{
				{Type: models.SSRTypeMeal, Preference: "vegetarian"},
				{Type: models.SSRTypeSeat, Preference: "window"},
			},
		},
		{
			name:    "vegan not double counted as veg",
			message: "vegan meal",
			want:    []SSRRequest{{Type: models.SSRTypeMeal, Preference: "vegan"}},
		},
		{
			name:    "wheelchair and baggage",
			message: "wheelchair assistance and extra baggage",
			want: []SSRRequest{
				{Type: models.SSRTypeAssistance, Preference: "wheelchair"},
				{Type: models.SSRTypeBaggage, Preference: "extra"},
			},
		},
		{
			name:    "legroom wins over window",
			message: "window seat with extra legroom",
			want:    []SSRRequest{{Type: models.SSRTypeSeat, Preference: "extra_legroom"}},
		},
		{name: "nothing recognized", message: "no idea", want: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SSRRequests(tc.message)
			if len(got) != len(tc.want) {
				t.Fatalf("SSRRequests(%q) = %+v, want %+v", tc.message, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("request %d = %+v, want %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

// Package catalog holds the hospital's static reference data: departments,
// hospital locations and doctors. The data is compiled in; every accessor
// returns copies so callers cannot mutate the shared tables.
package catalog

import (
	"errors"
	"strings"
)

var (
	// ErrDepartmentNotFound is returned when a department id is unknown.
	ErrDepartmentNotFound = errors.New("catalog: department not found")

	// ErrHospitalNotFound is returned when a hospital id is unknown.
	ErrHospitalNotFound = errors.New("catalog: hospital not found")

	// ErrDoctorNotFound is returned when a doctor id is unknown.
	ErrDoctorNotFound = errors.New("catalog: doctor not found")
)

// Department is a medical specialty patients book into.
type Department struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Locations   int    `json:"locations"`
	Doctors     int    `json:"doctors"`
}

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Hospital is a bookable hospital location.
type Hospital struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
	Phone       string      `json:"phone"`
	Timing      string      `json:"timing"`
	Available   bool        `json:"available"`
}

// Capacity is the number of slots a doctor offers per period of the day.
type Capacity struct {
	Morning   int `json:"morning"`
	Afternoon int `json:"afternoon"`
	Evening   int `json:"evening"`
}

// Doctor is a consultant with a fixed daily slot capacity.
type Doctor struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Qualification string   `json:"qualification"`
	Image         string   `json:"image"`
	DepartmentIDs []int    `json:"department_ids,omitempty"`
	Slots         Capacity `json:"slots"`
	Languages     []string `json:"languages,omitempty"`
}

// Departments returns every department in display order.
func Departments() []Department {
	out := make([]Department, len(departments))
	copy(out, departments)
	return out
}

// SearchDepartments filters departments by a case-insensitive substring of
// the name or description. A blank query returns everything.
func SearchDepartments(query string) []Department {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Departments()
	}
	var out []Department
	for _, d := range departments {
		if strings.Contains(strings.ToLower(d.Name), q) || strings.Contains(strings.ToLower(d.Description), q) {
			out = append(out, d)
		}
	}
	return out
}

// DepartmentByID looks up a department.
func DepartmentByID(id int) (Department, error) {
	for _, d := range departments {
		if d.ID == id {
			return d, nil
		}
	}
	return Department{}, ErrDepartmentNotFound
}

// DepartmentByName looks up a department by exact, case-insensitive name.
func DepartmentByName(name string) (Department, error) {
	for _, d := range departments {
		if strings.EqualFold(d.Name, strings.TrimSpace(name)) {
			return d, nil
		}
	}
	return Department{}, ErrDepartmentNotFound
}

// Hospitals returns every hospital, including unavailable ones, in id order.
func Hospitals() []Hospital {
	out := make([]Hospital, len(hospitals))
	copy(out, hospitals)
	return out
}

// AvailableHospitals returns only hospitals currently taking bookings.
func AvailableHospitals() []Hospital {
	var out []Hospital
	for _, h := range hospitals {
		if h.Available {
			out = append(out, h)
		}
	}
	return out
}

// HospitalByID looks up a hospital.
func HospitalByID(id int) (Hospital, error) {
	for _, h := range hospitals {
		if h.ID == id {
			return h, nil
		}
	}
	return Hospital{}, ErrHospitalNotFound
}

// HospitalByName looks up a hospital by exact, case-insensitive name.
func HospitalByName(name string) (Hospital, error) {
	for _, h := range hospitals {
		if strings.EqualFold(h.Name, strings.TrimSpace(name)) {
			return h, nil
		}
	}
	return Hospital{}, ErrHospitalNotFound
}

// Doctors returns every doctor.
func Doctors() []Doctor {
	out := make([]Doctor, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, d.clone())
	}
	return out
}

// DoctorsForDepartment returns the doctors attached to a department. Departments
// without dedicated consultants are served by the general roster.
func DoctorsForDepartment(departmentID int) []Doctor {
	var out []Doctor
	for _, d := range doctors {
		for _, id := range d.DepartmentIDs {
			if id == departmentID {
				out = append(out, d.clone())
				break
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, d := range doctors {
		if len(d.DepartmentIDs) == 0 {
			out = append(out, d.clone())
		}
	}
	return out
}

// DoctorByID looks up a doctor.
func DoctorByID(id int) (Doctor, error) {
	for _, d := range doctors {
		if d.ID == id {
			return d.clone(), nil
		}
	}
	return Doctor{}, ErrDoctorNotFound
}

// DoctorByName looks up a doctor by exact, case-insensitive name.
func DoctorByName(name string) (Doctor, error) {
	for _, d := range doctors {
		if strings.EqualFold(d.Name, strings.TrimSpace(name)) {
			return d.clone(), nil
		}
	}
	return Doctor{}, ErrDoctorNotFound
}

func (d Doctor) clone() Doctor {
	if d.DepartmentIDs != nil {
		d.DepartmentIDs = append([]int(nil), d.DepartmentIDs...)
	}
	if d.Languages != nil {
		d.Languages = append([]string(nil), d.Languages...)
	}
	return d
}

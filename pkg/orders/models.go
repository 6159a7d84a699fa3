package orders

import (
	"bytes"
	"encoding/json"
)

// Text is an optional leaf value of an order record. The zero value is absent.
type Text struct {
	Value string
	Valid bool
}

// Of returns a present Text holding s.
func Of(s string) Text {
	return Text{Value: s, Valid: true}
}

// UnmarshalJSON keeps strings verbatim and any other scalar as its literal
// JSON text. null leaves the value absent.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = Text{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Of(s)
		return nil
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return err
	}
	*t = Of(compact.String())
	return nil
}

func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

// Ptr returns a fresh pointer to the value, or nil when absent.
func (t Text) Ptr() *string {
	if !t.Valid {
		return nil
	}
	v := t.Value
	return &v
}

type OrderDetails struct {
	MedicineOrderID Text `json:"medicine_order_id"`
	OrderDate       Text `json:"order_date"`
	OrderStatus     Text `json:"order_status"`
	OrderType       Text `json:"order_type"`
	Priority        Text `json:"priority"`
}

type Patient struct {
	PatientID   Text `json:"patient_id"`
	Name        Text `json:"name"`
	Gender      Text `json:"gender"`
	DateOfBirth Text `json:"date_of_birth"`
}

type Encounter struct {
	EncounterID   Text `json:"encounter_id"`
	EncounterType Text `json:"encounter_type"`
	AdmissionDate Text `json:"admission_date"`
	DischargeDate Text `json:"discharge_date"`
}

type Doctor struct {
	DoctorID   Text `json:"doctor_id"`
	Name       Text `json:"name"`
	Department Text `json:"department"`
}

type Hospital struct {
	HospitalID   Text `json:"hospital_id"`
	HospitalName Text `json:"hospital_name"`
	Location     Text `json:"location"`
}

// MedicineLine is one prescribed medicine within an order.
type MedicineLine struct {
	MedicineID   Text `json:"medicine_id"`
	MedicineName Text `json:"medicine_name"`
	Dosage       Text `json:"dosage"`
	Frequency    Text `json:"frequency"`
	Route        Text `json:"route"`
	StartDate    Text `json:"start_date"`
	EndDate      Text `json:"end_date"`
}

// InputRecord is one hospital medicine-order event. Any sub-entity may be
// missing; a nil pointer reads as all-absent.
type InputRecord struct {
	Order     *OrderDetails  `json:"order_details,omitempty"`
	Patient   *Patient       `json:"patient,omitempty"`
	Encounter *Encounter     `json:"encounter,omitempty"`
	Doctor    *Doctor        `json:"prescribing_doctor,omitempty"`
	Hospital  *Hospital      `json:"hospital,omitempty"`
	Medicines []MedicineLine `json:"medicines,omitempty"`
}

// OrderOrZero and friends let callers project a record without nil checks.
func (r InputRecord) OrderOrZero() OrderDetails {
	if r.Order == nil {
		return OrderDetails{}
	}
	return *r.Order
}

func (r InputRecord) PatientOrZero() Patient {
	if r.Patient == nil {
		return Patient{}
	}
	return *r.Patient
}

func (r InputRecord) EncounterOrZero() Encounter {
	if r.Encounter == nil {
		return Encounter{}
	}
	return *r.Encounter
}

func (r InputRecord) DoctorOrZero() Doctor {
	if r.Doctor == nil {
		return Doctor{}
	}
	return *r.Doctor
}

func (r InputRecord) HospitalOrZero() Hospital {
	if r.Hospital == nil {
		return Hospital{}
	}
	return *r.Hospital
}

// Batch is the ordered set of records read from one input artifact.
type Batch []InputRecord

// MedicineCount is the number of rows the batch will flatten into.
func (b Batch) MedicineCount() int {
	n := 0
	for _, rec := range b {
		n += len(rec.Medicines)
	}
	return n
}

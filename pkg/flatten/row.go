package flatten

// Row is one denormalized medicine line. Field order is the output column
// order; a nil pointer is an absent value.
type Row struct {
	MedicineOrderID *string `parquet:"medicine_order_id,optional" json:"medicine_order_id"`
	OrderDate       *string `parquet:"order_date,optional" json:"order_date"`
	OrderStatus     *string `parquet:"order_status,optional" json:"order_status"`
	OrderType       *string `parquet:"order_type,optional" json:"order_type"`
	Priority        *string `parquet:"priority,optional" json:"priority"`

	PatientID   *string `parquet:"patient_id,optional" json:"patient_id"`
	PatientName *string `parquet:"patient_name,optional" json:"patient_name"`
	Gender      *string `parquet:"gender,optional" json:"gender"`
	DateOfBirth *string `parquet:"date_of_birth,optional" json:"date_of_birth"`

	EncounterID   *string `parquet:"encounter_id,optional" json:"encounter_id"`
	EncounterType *string `parquet:"encounter_type,optional" json:"encounter_type"`
	AdmissionDate *string `parquet:"admission_date,optional" json:"admission_date"`
	DischargeDate *string `parquet:"discharge_date,optional" json:"discharge_date"`

	DoctorID   *string `parquet:"doctor_id,optional" json:"doctor_id"`
	DoctorName *string `parquet:"doctor_name,optional" json:"doctor_name"`
	Department *string `parquet:"department,optional" json:"department"`

	MedicineID        *string `parquet:"medicine_id,optional" json:"medicine_id"`
	MedicineName      *string `parquet:"medicine_name,optional" json:"medicine_name"`
	Dosage            *string `parquet:"dosage,optional" json:"dosage"`
	Frequency         *string `parquet:"frequency,optional" json:"frequency"`
	Route             *string `parquet:"route,optional" json:"route"`
	MedicineStartDate *string `parquet:"medicine_start_date,optional" json:"medicine_start_date"`
	MedicineEndDate   *string `parquet:"medicine_end_date,optional" json:"medicine_end_date"`

	HospitalID   *string `parquet:"hospital_id,optional" json:"hospital_id"`
	HospitalName *string `parquet:"hospital_name,optional" json:"hospital_name"`
	Location     *string `parquet:"location,optional" json:"location"`
}

var columns = []string{
	"medicine_order_id", "order_date", "order_status", "order_type", "priority",
	"patient_id", "patient_name", "gender", "date_of_birth",
	"encounter_id", "encounter_type", "admission_date", "discharge_date",
	"doctor_id", "doctor_name", "department",
	"medicine_id", "medicine_name", "dosage", "frequency", "route", "medicine_start_date", "medicine_end_date",
	"hospital_id", "hospital_name", "location",
}

// Columns returns the output column names in order.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// Values returns the row's values in Columns() order.
func (r Row) Values() []*string {
	return []*string{
		r.MedicineOrderID, r.OrderDate, r.OrderStatus, r.OrderType, r.Priority,
		r.PatientID, r.PatientName, r.Gender, r.DateOfBirth,
		r.EncounterID, r.EncounterType, r.AdmissionDate, r.DischargeDate,
		r.DoctorID, r.DoctorName, r.Department,
		r.MedicineID, r.MedicineName, r.Dosage, r.Frequency, r.Route, r.MedicineStartDate, r.MedicineEndDate,
		r.HospitalID, r.HospitalName, r.Location,
	}
}

// Map returns the row keyed by column name, absent values as nil.
func (r Row) Map() map[string]interface{} {
	values := r.Values()
	out := make(map[string]interface{}, len(columns))
	for i, name := range columns {
		if values[i] == nil {
			out[name] = nil
			continue
		}
		out[name] = *values[i]
	}
	return out
}

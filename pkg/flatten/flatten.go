package flatten

import "github.com/synaptica-ai/order-etl/pkg/orders"

// Flatten unnests every record into one row per medicine line, in
// record-then-medicine order. Records without medicines produce no rows.
func Flatten(batch orders.Batch) []Row {
	rows := make([]Row, 0, batch.MedicineCount())

	for _, rec := range batch {
		order := rec.OrderOrZero()
		patient := rec.PatientOrZero()
		encounter := rec.EncounterOrZero()
		doctor := rec.DoctorOrZero()
		hospital := rec.HospitalOrZero()

		for _, med := range rec.Medicines {
			rows = append(rows, Row{
				MedicineOrderID: order.MedicineOrderID.Ptr(),
				OrderDate:       order.OrderDate.Ptr(),
				OrderStatus:     order.OrderStatus.Ptr(),
				OrderType:       order.OrderType.Ptr(),
				Priority:        order.Priority.Ptr(),

				PatientID:   patient.PatientID.Ptr(),
				PatientName: patient.Name.Ptr(),
				Gender:      patient.Gender.Ptr(),
				DateOfBirth: patient.DateOfBirth.Ptr(),

				EncounterID:   encounter.EncounterID.Ptr(),
				EncounterType: encounter.EncounterType.Ptr(),
				AdmissionDate: encounter.AdmissionDate.Ptr(),
				DischargeDate: encounter.DischargeDate.Ptr(),

				DoctorID:   doctor.DoctorID.Ptr(),
				DoctorName: doctor.Name.Ptr(),
				Department: doctor.Department.Ptr(),

				MedicineID:        med.MedicineID.Ptr(),
				MedicineName:      med.MedicineName.Ptr(),
				Dosage:            med.Dosage.Ptr(),
				Frequency:         med.Frequency.Ptr(),
				Route:             med.Route.Ptr(),
				MedicineStartDate: med.StartDate.Ptr(),
				MedicineEndDate:   med.EndDate.Ptr(),

				HospitalID:   hospital.HospitalID.Ptr(),
				HospitalName: hospital.HospitalName.Ptr(),
				Location:     hospital.Location.Ptr(),
			})
		}
	}

	return rows
}

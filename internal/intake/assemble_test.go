package intake

import (
	"encoding/json"

	"github.com/google/go-cmp/cmp"
)

func (ts *TestSuite) Test_AssembleIDCardAndDriving() {
	t := ts.T()
	res := defaultResults()
	s := NewSession("s1")
	s.Basics.StartDate = startDate()
	s = recognized(t, s, KindIDCard, res[KindIDCard])
	s = recognized(t, s, KindDriving, res[KindDriving])

	p, err := Assemble(s)
	ts.NoError(err)
	ts.Equal(IDCardDoc{ID: 7, Name: "张三", Number: "110101199001011234", Address: "北京"}, p.Identity)
	ts.Equal(DrivingLicenseDoc{ID: 9, Plate: "苏A12345", Frame: "LFV123", Engine: "E123", Type: "重型厢式货车"}, p.Vehicle)

	raw, err := json.Marshal(p)
	ts.NoError(err)

	var got map[string]any
	ts.NoError(json.Unmarshal(raw, &got))
	want := map[string]any{
		"startTime": "2021-09-11",
		"idCard": map[string]any{
			"id": float64(7), "name": "张三", "number": "110101199001011234", "address": "北京",
		},
		"drivingLicense": map[string]any{
			"id": float64(9), "plate": "苏A12345", "frame": "LFV123", "engine": "E123", "type": "重型厢式货车",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func (ts *TestSuite) Test_AssembleBusinessAndCertificate() {
	t := ts.T()
	res := defaultResults()
	s := mustApply(t, NewSession("s1"),
		IdentityBranchSelected{Branch: IdentityBusiness},
		VehicleBranchSelected{Branch: VehicleCertificate},
	)
	s.Basics.StartDate = startDate()
	s = recognized(t, s, KindBusiness, res[KindBusiness])
	s = recognized(t, s, KindCertificate, res[KindCertificate])

	p, err := Assemble(s)
	ts.NoError(err)

	raw, err := json.Marshal(p)
	ts.NoError(err)
	var got map[string]json.RawMessage
	ts.NoError(json.Unmarshal(raw, &got))

	ts.Len(got, 3)
	ts.Contains(got, "businessLicense")
	ts.Contains(got, "certificate")
	ts.NotContains(got, "idCard")
	ts.NotContains(got, "drivingLicense")
	ts.JSONEq(`{"id":10,"frame":"LFV456","engine":"E456"}`, string(got["certificate"]))
}

func (ts *TestSuite) Test_AssembleRequiresActiveSlotRecognized() {
	t := ts.T()
	res := defaultResults()
	s := NewSession("s1")
	s = recognized(t, s, KindIDCard, res[KindIDCard])
	s = recognized(t, s, KindDriving, res[KindDriving])

	// the certificate slot was never recognized
	s = mustApply(t, s, VehicleBranchSelected{Branch: VehicleCertificate})

	_, err := Assemble(s)
	ts.ErrorIs(err, ErrDocumentNotVerified)
}

func (ts *TestSuite) Test_PayloadMarshalRejectsIncompleteUnion() {
	_, err := json.Marshal(Payload{StartTime: startDate(), Identity: IDCardDoc{ID: 1}})
	ts.Error(err)
}

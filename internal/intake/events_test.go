package intake

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func (ts *TestSuite) Test_NewSessionDefaults() {
	s := NewSession("s1")

	ts.Equal(StepBasics, s.CurrentStep)
	ts.False(s.Finished)
	ts.Equal(InsuranceNewCar, s.Basics.InsuranceType)
	ts.Equal(IdentityIDCard, s.IdentityBranch)
	ts.Equal(VehicleDriving, s.VehicleBranch)
	ts.Empty(s.Slots)
	ts.Equal(StatusIdle, s.Slot(KindIDCard).Status)
	ts.NotNil(s.Vehicle.Plate)
	ts.NotNil(s.Vehicle.VehicleType)
}

func (ts *TestSuite) Test_UploadLifecycle() {
	t := ts.T()
	res := defaultResults()[KindIDCard]

	s := mustApply(t, NewSession("s1"), UploadStarted{Kind: KindIDCard, File: UploadedFile{Name: "id.jpg"}})
	slot := s.Slot(KindIDCard)
	ts.Equal(StatusPending, slot.Status)
	ts.Nil(slot.FileID)
	ts.True(s.Busy())
	ts.False(s.Editable(KindIDCard))

	_, err := Apply(s, UploadStarted{Kind: KindIDCard})
	ts.ErrorIs(err, ErrSlotBusy)

	s = mustApply(t, s, UploadCompleted{Kind: KindIDCard, Generation: slot.Generation, Result: res})
	slot = s.Slot(KindIDCard)
	ts.Equal(StatusSucceeded, slot.Status)
	ts.Require().NotNil(slot.FileID)
	ts.Equal(int64(7), *slot.FileID)
	ts.True(s.Editable(KindIDCard))
	ts.Equal(IdentityFields{Name: "张三", Number: "110101199001011234", Address: "北京"}, s.Identity)
	ts.False(s.Busy())
}

func (ts *TestSuite) Test_UploadFailedEvictsFileAndKeepsFieldsLocked() {
	t := ts.T()
	s := recognized(t, NewSession("s1"), KindIDCard, defaultResults()[KindIDCard])

	s = mustApply(t, s, UploadStarted{Kind: KindIDCard, File: UploadedFile{Name: "again.jpg"}})
	gen := s.Slot(KindIDCard).Generation
	s = mustApply(t, s, UploadFailed{Kind: KindIDCard, Generation: gen})

	slot := s.Slot(KindIDCard)
	ts.Equal(StatusFailed, slot.Status)
	ts.Nil(slot.FileID)
	ts.Nil(slot.File)
	ts.False(s.Editable(KindIDCard))
	ts.Equal("张三", s.Identity.Name, "fields stay unchanged on failure")
}

func (ts *TestSuite) Test_UploadStartedRejectsInactiveBranch() {
	_, err := Apply(NewSession("s1"), UploadStarted{Kind: KindBusiness})
	ts.ErrorIs(err, ErrInactiveBranch)

	_, err = Apply(NewSession("s1"), UploadStarted{Kind: KindCertificate})
	ts.ErrorIs(err, ErrInactiveBranch)
}

func (ts *TestSuite) Test_UploadStartedWhileAnotherSlotPending() {
	t := ts.T()
	s := mustApply(t, NewSession("s1"), UploadStarted{Kind: KindIDCard})

	next, err := Apply(s, UploadStarted{Kind: KindDriving})
	ts.ErrorIs(err, ErrSessionBusy)
	ts.Equal(s, next)
	ts.Equal(StatusIdle, next.Slot(KindDriving).Status)

	gen := s.Slot(KindIDCard).Generation
	s = mustApply(t, s, UploadFailed{Kind: KindIDCard, Generation: gen}, UploadStarted{Kind: KindDriving})
	ts.Equal(StatusPending, s.Slot(KindDriving).Status)
}

func (ts *TestSuite) Test_FileRemovedResetsSlotAndFields() {
	t := ts.T()
	s := recognized(t, NewSession("s1"), KindDriving, defaultResults()[KindDriving])

	s = mustApply(t, s, FileRemoved{Kind: KindDriving})

	slot := s.Slot(KindDriving)
	ts.Equal(StatusIdle, slot.Status)
	ts.Nil(slot.FileID)
	ts.Nil(slot.File)
	ts.False(s.Editable(KindDriving))
	ts.Equal("", s.Vehicle.Engine)
	ts.Equal("", s.Vehicle.Frame)
	ts.Require().NotNil(s.Vehicle.Plate)
	ts.Equal("", *s.Vehicle.Plate)
	ts.Require().NotNil(s.Vehicle.VehicleType)
	ts.Equal("", *s.Vehicle.VehicleType)
}

func (ts *TestSuite) Test_BranchSwitchResetsDeselectedSlot() {
	t := ts.T()
	results := defaultResults()

	tests := []struct {
		name  string
		setup func(Session) Session
		event Event
		group BranchGroup
		old   DocumentKind
	}{
		{
			name:  "identity idCard to business",
			setup: func(s Session) Session { return recognized(t, s, KindIDCard, results[KindIDCard]) },
			event: IdentityBranchSelected{Branch: IdentityBusiness},
			group: GroupIdentity,
			old:   KindIDCard,
		},
		{
			name: "identity business to idCard",
			setup: func(s Session) Session {
				s = mustApply(t, s, IdentityBranchSelected{Branch: IdentityBusiness})
				return recognized(t, s, KindBusiness, results[KindBusiness])
			},
			event: IdentityBranchSelected{Branch: IdentityIDCard},
			group: GroupIdentity,
			old:   KindBusiness,
		},
		{
			name:  "vehicle driving to certificate",
			setup: func(s Session) Session { return recognized(t, s, KindDriving, results[KindDriving]) },
			event: VehicleBranchSelected{Branch: VehicleCertificate},
			group: GroupVehicle,
			old:   KindDriving,
		},
		{
			name: "vehicle certificate to driving",
			setup: func(s Session) Session {
				s = mustApply(t, s, VehicleBranchSelected{Branch: VehicleCertificate})
				return recognized(t, s, KindCertificate, results[KindCertificate])
			},
			event: VehicleBranchSelected{Branch: VehicleDriving},
			group: GroupVehicle,
			old:   KindCertificate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.setup(NewSession("s1"))
			s = mustApply(t, s, tt.event)

			old := s.Slot(tt.old)
			require.Equal(t, StatusIdle, old.Status)
			require.Nil(t, old.FileID)
			require.Nil(t, old.File)

			active := s.ActiveKind(tt.group)
			require.NotEqual(t, tt.old, active)
			require.Equal(t, StatusIdle, s.Slot(active).Status)

			if tt.group == GroupIdentity {
				require.True(t, s.Locks()["name"])
				require.Equal(t, IdentityFields{}, s.Identity)
			} else {
				require.Equal(t, "", s.Vehicle.Engine)
				require.Equal(t, "", s.Vehicle.Frame)
				require.False(t, s.Editable(active))
			}
		})
	}
}

func (ts *TestSuite) Test_VehicleBranchShapesPlateFields() {
	t := ts.T()
	s := recognized(t, NewSession("s1"), KindDriving, defaultResults()[KindDriving])

	s = mustApply(t, s, VehicleBranchSelected{Branch: VehicleCertificate})
	ts.Nil(s.Vehicle.Plate, "plate is absent for certificates")
	ts.Nil(s.Vehicle.VehicleType)
	ts.NotContains(s.Locks(), "plate")

	s = recognized(t, s, KindCertificate, defaultResults()[KindCertificate])
	ts.Nil(s.Vehicle.Plate)
	ts.Equal("E456", s.Vehicle.Engine)

	s = mustApply(t, s, VehicleBranchSelected{Branch: VehicleDriving})
	ts.Require().NotNil(s.Vehicle.Plate)
	ts.Equal("", *s.Vehicle.Plate)
	ts.Contains(s.Locks(), "plate")
}

func (ts *TestSuite) Test_BranchSelectUnchangedIsNoop() {
	t := ts.T()
	s := recognized(t, NewSession("s1"), KindIDCard, defaultResults()[KindIDCard])

	again := mustApply(t, s, IdentityBranchSelected{Branch: IdentityIDCard}, IdentityBranchSelected{Branch: IdentityIDCard})

	ts.Equal(s, again)
	ts.Equal(StatusSucceeded, again.Slot(KindIDCard).Status)
}

func (ts *TestSuite) Test_StaleCompletionIsDiscarded() {
	t := ts.T()
	s := mustApply(t, NewSession("s1"), UploadStarted{Kind: KindIDCard})
	gen := s.Slot(KindIDCard).Generation

	s = mustApply(t, s, IdentityBranchSelected{Branch: IdentityBusiness})
	after := mustApply(t, s, UploadCompleted{Kind: KindIDCard, Generation: gen, Result: defaultResults()[KindIDCard]})

	ts.Equal(s, after)
	ts.Equal(IdentityFields{}, after.Identity)
	ts.Equal(StatusIdle, after.Slot(KindIDCard).Status)
	ts.Nil(after.Slot(KindIDCard).FileID)
}

func (ts *TestSuite) Test_StaleCompletionAfterReuploadIsDiscarded() {
	t := ts.T()
	s := mustApply(t, NewSession("s1"), UploadStarted{Kind: KindDriving})
	first := s.Slot(KindDriving).Generation
	s = mustApply(t, s, FileRemoved{Kind: KindDriving}, UploadStarted{Kind: KindDriving})

	s = mustApply(t, s, UploadCompleted{Kind: KindDriving, Generation: first, Result: defaultResults()[KindDriving]})
	ts.Equal(StatusPending, s.Slot(KindDriving).Status)
	ts.Equal("", s.Vehicle.Engine)
}

func (ts *TestSuite) Test_EditsRequireRecognizedDocument() {
	t := ts.T()
	s := NewSession("s1")

	_, err := Apply(s, IdentityEdited{Fields: IdentityFields{Name: "李四"}})
	ts.ErrorIs(err, ErrDocumentNotVerified)
	ts.Equal(ValidationFailure, KindOf(err))

	s = recognized(t, s, KindIDCard, defaultResults()[KindIDCard])
	s = mustApply(t, s, IdentityEdited{Fields: IdentityFields{Name: "张三", Number: "110101199001011234", Address: "上海"}})
	ts.Equal("上海", s.Identity.Address)

	_, err = Apply(s, VehicleEdited{Fields: VehicleFields{Engine: "x"}})
	ts.ErrorIs(err, ErrDocumentNotVerified)
}

func (ts *TestSuite) Test_EditableIffSucceeded() {
	t := ts.T()
	s := NewSession("s1")
	ts.False(s.Editable(KindIDCard))

	s = mustApply(t, s, UploadStarted{Kind: KindIDCard})
	ts.False(s.Editable(KindIDCard))
	gen := s.Slot(KindIDCard).Generation

	failed := mustApply(t, s, UploadFailed{Kind: KindIDCard, Generation: gen})
	ts.False(failed.Editable(KindIDCard))

	ok := mustApply(t, s, UploadCompleted{Kind: KindIDCard, Generation: gen, Result: Extraction{ID: 1}})
	ts.True(ok.Editable(KindIDCard))
	ts.False(ok.Editable(KindBusiness), "inactive kinds are never editable")
}

func (ts *TestSuite) Test_StepNavigation() {
	t := ts.T()
	s := NewSession("s1")
	s.Identity.Name = "kept"

	s = mustApply(t, s, StepNavigated{Index: 2})
	ts.Equal(StepVehicle, s.CurrentStep)
	ts.Equal("kept", s.Identity.Name)

	s = mustApply(t, s, StepNavigated{Index: 0})
	ts.Equal(StepBasics, s.CurrentStep)

	for _, idx := range []int{-1, 3, 10} {
		_, err := Apply(s, StepNavigated{Index: idx})
		ts.ErrorIs(err, ErrInvalidStep, "index %d", idx)
	}
}

func (ts *TestSuite) Test_FinishedSessionRejectsEvents() {
	t := ts.T()
	s := mustApply(t, NewSession("s1"), OrderCreated{})
	ts.True(s.Finished)
	ts.Equal(StepDone, s.CurrentStep)

	_, err := Apply(s, StepNavigated{Index: 0})
	ts.ErrorIs(err, ErrSessionFinished)
	_, err = Apply(s, IdentityBranchSelected{Branch: IdentityBusiness})
	ts.ErrorIs(err, ErrSessionFinished)
}

func (ts *TestSuite) Test_ApplyDoesNotMutateInput() {
	t := ts.T()
	s := recognized(t, NewSession("s1"), KindDriving, defaultResults()[KindDriving])
	plate := *s.Vehicle.Plate

	_ = mustApply(t, s, VehicleBranchSelected{Branch: VehicleCertificate}, FileRemoved{Kind: KindCertificate})

	ts.Equal(StatusSucceeded, s.Slot(KindDriving).Status)
	ts.Equal(plate, *s.Vehicle.Plate)
}

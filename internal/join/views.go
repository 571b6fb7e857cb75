package join

import (
	"github.com/raphaelgruber/staffdash/internal/models"
)

// AssignmentView is an assignment with its job, worker, and client inlined.
type AssignmentView struct {
	models.Assignment
	Job    Ref[models.Job]    `json:"job"`
	Worker Ref[models.Worker] `json:"worker"`
	Client Ref[models.Client] `json:"client"`
}

// TimesheetView is a timesheet with its assignment, worker, and client inlined.
// Worker and client ids missing on the timesheet are taken from its assignment.
type TimesheetView struct {
	models.Timesheet
	Assignment Ref[models.Assignment] `json:"assignment"`
	Worker     Ref[models.Worker]     `json:"worker"`
	Client     Ref[models.Client]     `json:"client"`
}

// Rate is the hourly rate of the timesheet's assignment.
func (v TimesheetView) Rate() models.Number {
	return v.Assignment.Value.EffectiveRate()
}

// JobView is a job with its client inlined.
type JobView struct {
	models.Job
	Client Ref[models.Client] `json:"client"`
}

// DocumentView is a document with its worker inlined.
type DocumentView struct {
	models.Document
	Worker Ref[models.Worker] `json:"worker"`
}

// PaymentView is a payment with its worker and assignment inlined.
type PaymentView struct {
	models.Payment
	Worker     Ref[models.Worker]     `json:"worker"`
	Assignment Ref[models.Assignment] `json:"assignment"`
}

// ReferralView is a referral with the referring worker inlined.
type ReferralView struct {
	models.Referral
	Referrer Ref[models.Worker] `json:"referrer"`
}

// Collections is the raw record set views are built from.
type Collections struct {
	Clients     []models.Client
	Workers     []models.Worker
	Jobs        []models.Job
	Assignments []models.Assignment
	Timesheets  []models.Timesheet
	Documents   []models.Document
	Payments    []models.Payment
	Referrals   []models.Referral
}

// Indexes holds an id index per joinable collection.
type Indexes struct {
	Clients     Index[models.Client]
	Workers     Index[models.Worker]
	Jobs        Index[models.Job]
	Assignments Index[models.Assignment]
}

// NewIndexes indexes the join targets of c.
func NewIndexes(c Collections) Indexes {
	return Indexes{
		Clients:     NewIndex(c.Clients),
		Workers:     NewIndex(c.Workers),
		Jobs:        NewIndex(c.Jobs),
		Assignments: NewIndex(c.Assignments),
	}
}

func (ix Indexes) client(id string) Ref[models.Client] {
	return Resolve(ix.Clients, id, models.UnknownClient)
}

func (ix Indexes) worker(id string) Ref[models.Worker] {
	return Resolve(ix.Workers, id, models.UnknownWorker)
}

func (ix Indexes) assignment(id string) Ref[models.Assignment] {
	return Resolve(ix.Assignments, id, models.UnknownAssignment)
}

// AssignmentViews joins each assignment to its job, worker, and client.
// A client id missing on the assignment is taken from its job.
func (ix Indexes) AssignmentViews(as []models.Assignment) []AssignmentView {
	out := make([]AssignmentView, len(as))
	for i, a := range as {
		job := Resolve(ix.Jobs, a.JobID, models.UnknownJob)
		clientID := a.ClientID
		if clientID == "" && job.Found {
			clientID = job.Value.ClientID
		}
		out[i] = AssignmentView{
			Assignment: a,
			Job:        job,
			Worker:     ix.worker(a.WorkerID),
			Client:     ix.client(clientID),
		}
	}
	return out
}

// Timesheets joins each timesheet to its assignment, worker, and client.
func (ix Indexes) Timesheets(ts []models.Timesheet) []TimesheetView {
	out := make([]TimesheetView, len(ts))
	for i, t := range ts {
		a := ix.assignment(t.AssignmentID)
		workerID, clientID := t.WorkerID, t.ClientID
		if a.Found {
			if workerID == "" {
				workerID = a.Value.WorkerID
			}
			if clientID == "" {
				clientID = a.Value.ClientID
			}
		}
		out[i] = TimesheetView{
			Timesheet:  t,
			Assignment: a,
			Worker:     ix.worker(workerID),
			Client:     ix.client(clientID),
		}
	}
	return out
}

// JobViews joins each job to its client.
func (ix Indexes) JobViews(js []models.Job) []JobView {
	out := make([]JobView, len(js))
	for i, j := range js {
		out[i] = JobView{Job: j, Client: ix.client(j.ClientID)}
	}
	return out
}

// Documents joins each document to its worker.
func (ix Indexes) Documents(ds []models.Document) []DocumentView {
	out := make([]DocumentView, len(ds))
	for i, d := range ds {
		out[i] = DocumentView{Document: d, Worker: ix.worker(d.WorkerID)}
	}
	return out
}

// Payments joins each payment to its worker and, when set, its assignment.
func (ix Indexes) Payments(ps []models.Payment) []PaymentView {
	out := make([]PaymentView, len(ps))
	for i, p := range ps {
		v := PaymentView{Payment: p, Worker: ix.worker(p.WorkerID)}
		if p.AssignmentID != "" {
			v.Assignment = ix.assignment(p.AssignmentID)
		}
		out[i] = v
	}
	return out
}

// Referrals joins each referral to the worker who made it.
func (ix Indexes) Referrals(rs []models.Referral) []ReferralView {
	out := make([]ReferralView, len(rs))
	for i, r := range rs {
		out[i] = ReferralView{Referral: r, Referrer: ix.worker(r.ReferrerID)}
	}
	return out
}

// Views is every denormalized collection of a snapshot.
type Views struct {
	Jobs        []JobView        `json:"jobs"`
	Assignments []AssignmentView `json:"assignments"`
	Timesheets  []TimesheetView  `json:"timesheets"`
	Documents   []DocumentView   `json:"documents"`
	Payments    []PaymentView    `json:"payments"`
	Referrals   []ReferralView   `json:"referrals"`
}

// Build joins every collection in c.
func Build(c Collections) Views {
	ix := NewIndexes(c)
	return Views{
		Jobs:        ix.JobViews(c.Jobs),
		Assignments: ix.AssignmentViews(c.Assignments),
		Timesheets:  ix.Timesheets(c.Timesheets),
		Documents:   ix.Documents(c.Documents),
		Payments:    ix.Payments(c.Payments),
		Referrals:   ix.Referrals(c.Referrals),
	}
}

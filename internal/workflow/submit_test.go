package workflow_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garnizeh/crm/pkg/client"
	"github.com/garnizeh/crm/pkg/crmerr"
	"github.com/garnizeh/crm/pkg/models"
)

func TestSubmit_ConfirmsServerAnswer(t *testing.T) {
	e, p, set := setup(t)
	ctx := context.Background()

	c, err := e.SubmitCustomer(ctx, models.Customer{Name: "Shop", Email: "s@shop.io", Industry: "Retail"})
	require.NoError(t, err)
	got, err := set.Customers.Get(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shop", got.Name)

	pr, err := e.SubmitProject(ctx, c.ID, models.Project{Name: "Kiosk", Budget: 200})
	require.NoError(t, err)
	assert.Equal(t, models.PhasePlanning, pr.Phase)
	assert.Equal(t, c.ID, pr.CustomerID)

	task, err := e.SubmitTask(ctx, pr.ID, models.Task{Description: "install", DueDate: "2025-07-01"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, task.Status)

	req, err := e.SubmitResourceRequest(ctx, pr.ID, models.ResourceRequest{Type: models.RequestFinancial, Description: "hardware", RequestedBy: "pat"})
	require.NoError(t, err)

	in, err := e.SubmitInteraction(ctx, c.ID, client.NewInteraction{
		Type: models.InteractionFileUpload, FileName: "contract.pdf", File: strings.NewReader("%PDF"),
	})
	require.NoError(t, err)
	assert.Equal(t, "stored-contract.pdf", in.FilePath)

	sale, err := e.SubmitSale(ctx, models.SalesOpportunity{CustomerID: c.ID, Name: "Kiosk deal", Stage: models.StageQualified, Revenue: 50})
	require.NoError(t, err)

	assert.Len(t, p.patches, 6)
	assert.Len(t, set.Projects.List(func(x models.Project) bool { return x.ID == pr.ID }), 1)
	assert.Len(t, set.Tasks.List(func(x models.Task) bool { return x.ID == task.ID }), 1)
	assert.Len(t, set.Requests.List(func(x models.ResourceRequest) bool { return x.ID == req.ID }), 1)
	assert.Len(t, set.Interactions.List(nil), 1)
	assert.Len(t, set.Sales.List(func(x models.SalesOpportunity) bool { return x.ID == sale.ID }), 1)
}

func TestSubmit_InvalidSendsNothing(t *testing.T) {
	e, p, set := setup(t)
	ctx := context.Background()
	before := set.Tasks.Version()

	_, err := e.SubmitTask(ctx, 0, models.Task{Description: "x", DueDate: "2025-01-01"})
	assert.Equal(t, crmerr.KindValidation, crmerr.KindOf(err))
	_, err = e.SubmitProject(ctx, 1, models.Project{Name: "p", Phase: "Done"})
	assert.Equal(t, crmerr.KindInvalidEnum, crmerr.KindOf(err))
	_, err = e.SubmitInteraction(ctx, 0, client.NewInteraction{Type: models.InteractionCall})
	assert.Equal(t, crmerr.KindValidation, crmerr.KindOf(err))
	_, err = e.SubmitSale(ctx, models.SalesOpportunity{CustomerID: 1, Name: "deal", Stage: "Won"})
	assert.Equal(t, crmerr.KindInvalidEnum, crmerr.KindOf(err))

	assert.Empty(t, p.patches)
	assert.Equal(t, before, set.Tasks.Version())
}

func TestSubmit_FailureLeavesStoreUntouched(t *testing.T) {
	e, p, set := setup(t)
	p.fail = crmerr.Wrap(crmerr.KindNetwork, "POST /customers", errors.New("connection refused"))

	_, err := e.SubmitCustomer(context.Background(), models.Customer{Name: "Shop", Email: "s@shop.io"})
	assert.Equal(t, crmerr.KindPersistence, crmerr.KindOf(err))
	assert.ErrorIs(t, err, crmerr.ErrNetwork)
	assert.Equal(t, 1, set.Customers.Len())
}

func TestDeleteProject_RemovesDependents(t *testing.T) {
	e, p, set := setup(t)
	set.UpdateLogs.Replace([]models.UpdateLog{{ID: 5, ProjectID: 1, ChangeType: "phase", ResponsiblePerson: "pat"}})

	require.NoError(t, e.DeleteProject(context.Background(), 1))

	assert.Equal(t, 0, set.Projects.Len())
	assert.Equal(t, 0, set.Tasks.Len())
	assert.Equal(t, 0, set.Requests.Len())
	assert.Equal(t, 0, set.UpdateLogs.Len())
	// the customer-scope record survives
	recs := set.Funding.List(nil)
	require.Len(t, recs, 1)
	assert.Equal(t, models.CustomerScope(1), recs[0].Scope())
	assert.Equal(t, client.Patch{"delete": "project"}, p.patches[0])
}

func TestDeleteSale(t *testing.T) {
	e, p, set := setup(t)
	ctx := context.Background()

	p.fail = errors.New("status 500")
	err := e.DeleteSale(ctx, 3)
	assert.Equal(t, crmerr.KindPersistence, crmerr.KindOf(err))
	assert.Equal(t, 1, set.Sales.Len())

	p.fail = nil
	require.NoError(t, e.DeleteSale(ctx, 3))
	_, err = set.Sales.Get(3)
	assert.Equal(t, crmerr.KindNotFound, crmerr.KindOf(err))
}

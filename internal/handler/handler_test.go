package handler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveLiabilityRequestUsesLoanAmountKey(t *testing.T) {
	var req removeLiabilityRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Car Loan","loanAmount":500}`), &req))
	assert.Equal(t, "Car Loan", req.Name)
	require.NotNil(t, req.LoanAmount)
	assert.Equal(t, 500.0, *req.LoanAmount)
}

func TestRemoveLiabilityRequestOmittedAmountMeansFullRemoval(t *testing.T) {
	var req removeLiabilityRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Car Loan"}`), &req))
	assert.Nil(t, req.LoanAmount)
}

package internaldefs

import (
	menugate "github.com/mostafamohamed123hf/menugate"
)

// CounterDef binds a [menugate.MetricID] to its exported series name.
type CounterDef struct {
	ID   menugate.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: menugate.MetricCallSuccess, Name: "menugate_call_success_total", Help: "Gateway calls that returned a success envelope."},
	{ID: menugate.MetricCallOffline, Name: "menugate_call_offline_total", Help: "Calls short-circuited by the offline gate."},
	{ID: menugate.MetricCallTimeout, Name: "menugate_call_timeout_total", Help: "Calls abandoned at their deadline."},
	{ID: menugate.MetricCallNetwork, Name: "menugate_call_network_total", Help: "Transport-level call failures."},
	{ID: menugate.MetricCallUnauthorized, Name: "menugate_call_unauthorized_total", Help: "Calls rejected as unauthorized."},
	{ID: menugate.MetricCallServer, Name: "menugate_call_server_error_total", Help: "Non-success statuses and malformed bodies."},
	{ID: menugate.MetricSnapshotServed, Name: "menugate_snapshot_served_total", Help: "Reads answered from the snapshot store."},
	{ID: menugate.MetricSnapshotMiss, Name: "menugate_snapshot_miss_total", Help: "Failed reads with no snapshot to serve."},
	{ID: menugate.MetricMutationQueued, Name: "menugate_mutation_queued_total", Help: "Writes deferred to the pending queue."},
	{ID: menugate.MetricMutationReplayed, Name: "menugate_mutation_replayed_total", Help: "Queued mutations confirmed during flush."},
	{ID: menugate.MetricMutationRetained, Name: "menugate_mutation_retained_total", Help: "Queued mutations that failed replay and stayed queued."},
	{ID: menugate.MetricFlushRuns, Name: "menugate_flush_runs_total", Help: "Flushes that actually executed."},
	{ID: menugate.MetricFlushSuppressed, Name: "menugate_flush_suppressed_total", Help: "Flush invocations suppressed by the in-flight guard."},
	{ID: menugate.MetricReconcileChanged, Name: "menugate_reconcile_changed_total", Help: "Reconciliations that changed the permission set."},
	{ID: menugate.MetricReconcileUnchanged, Name: "menugate_reconcile_unchanged_total", Help: "Reconciliations with an identical permission set."},
	{ID: menugate.MetricReconcileFailed, Name: "menugate_reconcile_failed_total", Help: "Reconciliation fetches that failed."},
	{ID: menugate.MetricCredentialMinted, Name: "menugate_credential_minted_total", Help: "Synthesized bearer credentials."},
	{ID: menugate.MetricCredentialReused, Name: "menugate_credential_reused_total", Help: "Calls that reused an unexpired credential."},
}

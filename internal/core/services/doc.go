// Package services holds the retrieval and grounding core: the retriever,
// the grounding gate, the engine that owns the serving snapshot, and the
// ingestion, evaluation and settings services behind the driving ports.
//
// Production code imports only domain, the ports and the logger; the
// concrete adapters are chosen in cmd/kurator.
package services

package clientfactory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func jsonRPCServer(t *testing.T, handler func(method string) (result any, rpcErr *rpcError)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		result, rpcErr := handler(req.Method)
		resp := rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: rpcErr}
		if rpcErr == nil {
			raw, err := json.Marshal(result)
			if err != nil {
				t.Fatalf("marshal result: %v", err)
			}
			resp.Result = raw
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestHTTPProviderDecodesResult(t *testing.T) {
	srv := jsonRPCServer(t, func(method string) (any, *rpcError) {
		if method != "net_version" {
			t.Fatalf("unexpected method %q", method)
		}
		return "1", nil
	})
	defer srv.Close()

	p := newHTTPProvider(srv.URL, nil, 0)
	var id string
	if err := p.Request(context.Background(), "net_version", []any{}, &id); err != nil {
		t.Fatal(err)
	}
	if id != "1" {
		t.Fatalf("id = %q, want 1", id)
	}
}

func TestHTTPProviderSurfacesRPCError(t *testing.T) {
	srv := jsonRPCServer(t, func(method string) (any, *rpcError) {
		return nil, &rpcError{Code: -32000, Message: `{"error":"countryBlocked"}`}
	})
	defer srv.Close()

	p := newHTTPProvider(srv.URL, nil, 0)
	var id string
	err := p.Request(context.Background(), "net_version", []any{}, &id)
	if err == nil {
		t.Fatal("expected error")
	}
	rpcErr, ok := err.(*RPCError)
	if !ok {
		t.Fatalf("error is %T, want *RPCError", err)
	}
	if rpcErr.Code != -32000 || rpcErr.Message != `{"error":"countryBlocked"}` {
		t.Fatalf("got %+v", rpcErr)
	}
}

func TestHTTPProviderSendsExtraHeaders(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Client")
		var req rpcRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
		raw, _ := json.Marshal("ok")
		resp.Result = raw
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := newHTTPProvider(srv.URL, map[string]string{"X-Client": "wallet-netctl"}, 0)
	var out string
	if err := p.Request(context.Background(), "ping", nil, &out); err != nil {
		t.Fatal(err)
	}
	if gotHeader != "wallet-netctl" {
		t.Fatalf("X-Client header = %q, want wallet-netctl", gotHeader)
	}
}

// FuzzDecodeRPCResponse checks that arbitrary bytes never panic when
// decoded as a JSON-RPC 2.0 response envelope.
func FuzzDecodeRPCResponse(f *testing.F) {
	f.Add([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x1"}`))
	f.Add([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"boom"}}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`null`))
	f.Add([]byte(`{"result":null,"error":null}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var resp rpcResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return
		}
		if resp.Error != nil {
			_ = (&RPCError{Code: resp.Error.Code, Message: resp.Error.Message}).Error()
		}
	})
}

func TestCreateNetworkClientVariants(t *testing.T) {
	t.Run("builtin requires network and api key", func(t *testing.T) {
		if _, err := CreateNetworkClient(ClientSpec{BuiltIn: &BuiltInSpec{}}); err == nil {
			t.Fatal("expected error for missing network/apiKey")
		}
		client, err := CreateNetworkClient(ClientSpec{BuiltIn: &BuiltInSpec{Network: "mainnet", APIKey: "k"}})
		if err != nil {
			t.Fatal(err)
		}
		if client.Provider == nil || client.BlockTracker == nil {
			t.Fatal("expected both provider and blockTracker")
		}
	})

	t.Run("custom requires rpc url", func(t *testing.T) {
		if _, err := CreateNetworkClient(ClientSpec{Custom: &CustomSpec{}}); err == nil {
			t.Fatal("expected error for missing rpcUrl")
		}
		client, err := CreateNetworkClient(ClientSpec{Custom: &CustomSpec{RPCURL: "http://localhost:8545", ChainID: "0x539"}})
		if err != nil {
			t.Fatal(err)
		}
		if client.Provider == nil || client.BlockTracker == nil {
			t.Fatal("expected both provider and blockTracker")
		}
	})

	t.Run("neither variant set is an error", func(t *testing.T) {
		if _, err := CreateNetworkClient(ClientSpec{}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("independent pairs for identical inputs", func(t *testing.T) {
		spec := ClientSpec{Custom: &CustomSpec{RPCURL: "http://localhost:8545", ChainID: "0x539"}}
		a, err := CreateNetworkClient(spec)
		if err != nil {
			t.Fatal(err)
		}
		b, err := CreateNetworkClient(spec)
		if err != nil {
			t.Fatal(err)
		}
		if a.Provider == b.Provider || a.BlockTracker == b.BlockTracker {
			t.Fatal("expected independent instances for identical inputs")
		}
	})
}

package fases

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

type stubStore struct {
	config    *ConfigFases
	estados   map[uuid.UUID]*EstadoCorretor
	ordem     []uuid.UUID
	historico []HistoricoFase
}

func newStubStore() *stubStore {
	return &stubStore{estados: map[uuid.UUID]*EstadoCorretor{}}
}

func (s *stubStore) seed(tenantID, corretorID uuid.UUID) {
	s.estados[corretorID] = &EstadoCorretor{TenantID: tenantID, CorretorID: corretorID}
	s.ordem = append(s.ordem, corretorID)
}

func (s *stubStore) GetConfig(ctx context.Context, tenantID uuid.UUID) (*ConfigFases, error) {
	if s.config == nil {
		return nil, errNotFound
	}
	cfg := *s.config
	return &cfg, nil
}

func (s *stubStore) SaveConfig(ctx context.Context, cfg ConfigFases) (*ConfigFases, error) {
	stored := cfg
	s.config = &stored
	out := cfg
	return &out, nil
}

func (s *stubStore) SetConfigAtivo(ctx context.Context, tenantID uuid.UUID, ativo bool) error {
	if s.config == nil {
		return errNotFound
	}
	s.config.Ativo = ativo
	return nil
}

func (s *stubStore) GetEstado(ctx context.Context, tenantID, corretorID uuid.UUID) (*EstadoCorretor, error) {
	estado, ok := s.estados[corretorID]
	if !ok {
		return nil, errNotFound
	}
	cp := *estado
	return &cp, nil
}

func (s *stubStore) GetEstadoForUpdate(ctx context.Context, tenantID, corretorID uuid.UUID) (*EstadoCorretor, error) {
	return s.GetEstado(ctx, tenantID, corretorID)
}

func (s *stubStore) SalvarEstado(ctx context.Context, estado EstadoCorretor) error {
	cp := estado
	if _, ok := s.estados[estado.CorretorID]; !ok {
		s.ordem = append(s.ordem, estado.CorretorID)
	}
	s.estados[estado.CorretorID] = &cp
	return nil
}

func (s *stubStore) ListCorretores(ctx context.Context, tenantID uuid.UUID, somenteInscritos bool) ([]CorretorFase, error) {
	var out []CorretorFase
	for _, id := range s.ordem {
		estado := s.estados[id]
		if somenteInscritos && !estado.Inscrito {
			continue
		}
		out = append(out, CorretorFase{EstadoCorretor: *estado, Ativo: true})
	}
	return out, nil
}

func (s *stubStore) ListElegiveis(ctx context.Context, tenantID uuid.UUID) ([]CorretorFase, error) {
	var out []CorretorFase
	for _, id := range s.ordem {
		estado := s.estados[id]
		if !estado.Inscrito || estado.Solitario {
			continue
		}
		out = append(out, CorretorFase{EstadoCorretor: *estado, Ativo: true})
	}
	return out, nil
}

func (s *stubStore) Ranking(ctx context.Context, tenantID uuid.UUID, limit int) ([]CorretorFase, error) {
	out, _ := s.ListCorretores(ctx, tenantID, true)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubStore) InsertHistorico(ctx context.Context, entrada HistoricoFase) error {
	entrada.ID = uuid.New()
	entrada.CriadoEm = time.Now()
	s.historico = append(s.historico, entrada)
	return nil
}

func (s *stubStore) ListHistorico(ctx context.Context, tenantID uuid.UUID, corretorID *uuid.UUID, limit int) ([]HistoricoFase, error) {
	var out []HistoricoFase
	for i := len(s.historico) - 1; i >= 0; i-- {
		h := s.historico[i]
		if corretorID != nil && h.CorretorID != *corretorID {
			continue
		}
		out = append(out, h)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubStore) EmTransacao(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	return fn(ctx, s)
}

func (s *stubStore) mudancas(tipo string) []HistoricoFase {
	var out []HistoricoFase
	for _, h := range s.historico {
		if h.TipoMudanca == tipo {
			out = append(out, h)
		}
	}
	return out
}

type sorteioFixo struct {
	valor float64
}

func (s sorteioFixo) Float64() float64 { return s.valor }

func newTestService(store *stubStore, mes string) *Service {
	svc := NewService(store, nil, 0)
	t, _ := time.Parse("2006-01", mes)
	svc.agora = func() time.Time { return t }
	return svc
}

func checkInvariante(t *testing.T, estado *EstadoCorretor) {
	t.Helper()
	if estado.FaseAtual < FaseSolitario || estado.FaseAtual > FaseMaxima {
		t.Fatalf("fase fora do intervalo: %d", estado.FaseAtual)
	}
	if estado.Solitario != (estado.FaseAtual == FaseSolitario) {
		t.Fatalf("solitario=%v inconsistente com fase=%d", estado.Solitario, estado.FaseAtual)
	}
}

func TestUpsertConfigCriaComDefaults(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, "2026-01")
	tenantID := uuid.New()

	peso := 500
	cfg, err := svc.UpsertConfig(context.Background(), tenantID, UpsertConfigInput{PesoFase5: &peso})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PesoFase5 != 500 {
		t.Fatalf("peso fase 5 = %d", cfg.PesoFase5)
	}
	if cfg.PesoFase1 != 100 || cfg.TentativasFase1 != 3 || cfg.MaxMesesSolitario != 3 {
		t.Fatalf("defaults não aplicados: %+v", cfg)
	}
	if cfg.Ativo {
		t.Fatal("config nova deve nascer inativa")
	}
}

func TestUpsertConfigMergeParcial(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, "2026-01")
	tenantID := uuid.New()

	if _, err := svc.UpsertConfig(context.Background(), tenantID, UpsertConfigInput{}); err != nil {
		t.Fatal(err)
	}

	// Valores fora da faixa usual são aceitos sem validação.
	negativo := -10
	ativo := true
	cfg, err := svc.UpsertConfig(context.Background(), tenantID, UpsertConfigInput{PesoFase2: &negativo, Ativo: &ativo})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PesoFase2 != -10 || !cfg.Ativo {
		t.Fatalf("merge parcial falhou: %+v", cfg)
	}
	if cfg.PesoFase1 != 100 {
		t.Fatalf("campo não informado foi alterado: %d", cfg.PesoFase1)
	}
}

func TestInscreverZeraContadoresEPreservaPrestigio(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, "2026-03")
	tenantID := uuid.New()
	corretorID := uuid.New()
	store.seed(tenantID, corretorID)

	estado := store.estados[corretorID]
	estado.Prestigio = 2
	estado.RecordeUltra = 7
	estado.VendasMes = 4
	estado.TentativasFase1 = 2
	estado.ContadorVendasFase5 = 2

	resultado, err := svc.Inscrever(context.Background(), tenantID, corretorID)
	if err != nil {
		t.Fatal(err)
	}

	if !resultado.Inscrito || resultado.FaseAtual != FaseMinima || resultado.Solitario {
		t.Fatalf("estado pós-inscrição inesperado: %+v", resultado)
	}
	if resultado.VendasMes != 0 || resultado.TentativasFase1 != 0 || resultado.ContadorVendasFase5 != 0 {
		t.Fatalf("contadores não zerados: %+v", resultado)
	}
	if resultado.Prestigio != 2 || resultado.RecordeUltra != 7 {
		t.Fatalf("prestígio/recorde não preservados: %+v", resultado)
	}
	if resultado.MesAcompanhamento == nil || *resultado.MesAcompanhamento != "2026-03" {
		t.Fatalf("mês de acompanhamento não carimbado: %+v", resultado.MesAcompanhamento)
	}
	if len(store.mudancas(MudancaInscricao)) != 1 {
		t.Fatal("histórico de inscrição ausente")
	}
	checkInvariante(t, resultado)
}

func TestInscreverIdempotenteModuloTimestamp(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, "2026-03")
	tenantID := uuid.New()
	corretorID := uuid.New()
	store.seed(tenantID, corretorID)

	primeiro, err := svc.Inscrever(context.Background(), tenantID, corretorID)
	if err != nil {
		t.Fatal(err)
	}
	segundo, err := svc.Inscrever(context.Background(), tenantID, corretorID)
	if err != nil {
		t.Fatal(err)
	}

	if segundo.FaseAtual != primeiro.FaseAtual || segundo.VendasMes != 0 || segundo.TentativasFase1 != 0 {
		t.Fatalf("reinscrição alterou estado: %+v", segundo)
	}
	if len(store.mudancas(MudancaInscricao)) != 2 {
		t.Fatal("cada inscrição deve registrar histórico")
	}
}

func TestRemoverForaDoSistemaNoOp(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, "2026-03")
	tenantID := uuid.New()
	corretorID := uuid.New()
	store.seed(tenantID, corretorID)

	if err := svc.Remover(context.Background(), tenantID, corretorID); err != nil {
		t.Fatal(err)
	}
	if len(store.historico) != 0 {
		t.Fatal("remoção de corretor fora do sistema não deve gerar histórico")
	}
}

func TestVendaAvancaAteFase5(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, "2026-04")
	tenantID := uuid.New()
	corretorID := uuid.New()
	store.seed(tenantID, corretorID)
	store.config = &ConfigFases{TenantID: tenantID, Ativo: true, TentativasFase1: 3, MaxMesesSolitario: 3, PesoFase1: 100, PesoFase2: 150, PesoFase3: 200, PesoFase4: 250, PesoFase5: 300}

	if _, err := svc.Inscrever(context.Background(), tenantID, corretorID); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 4; i++ {
		if err := svc.ProcessarVenda(context.Background(), tenantID, corretorID, uuid.New(), false); err != nil {
			t.Fatal(err)
		}
	}

	estado := store.estados[corretorID]
	if estado.FaseAtual != FaseMaxima {
		t.Fatalf("esperava fase 5, obteve %d", estado.FaseAtual)
	}
	if estado.VendasMes != 4 {
		t.Fatalf("vendas do mês = %d", estado.VendasMes)
	}
	if avancos := store.mudancas(MudancaAvanco); len(avancos) != 4 {
		t.Fatalf("esperava 4 avanços no histórico, obteve %d", len(avancos))
	}
	checkInvariante(t, estado)
}

func TestFase5PrestigioACadaTresVendas(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, "2026-04")
	tenantID := uuid.New()
	corretorID := uuid.New()
	store.seed(tenantID, corretorID)
	store.config = &ConfigFases{TenantID: tenantID, Ativo: true, TentativasFase1: 3, MaxMesesSolitario: 3, PesoFase5: 300}

	mes := "2026-04"
	estado := store.estados[corretorID]
	estado.Inscrito = true
	estado.FaseAtual = FaseMaxima
	estado.MesAcompanhamento = &mes

	const vendas = 7
	for i := 0; i < vendas; i++ {
		if err := svc.ProcessarVenda(context.Background(), tenantID, corretorID, uuid.New(), true); err != nil {
			t.Fatal(err)
		}
	}

	estado = store.estados[corretorID]
	if estado.Prestigio != vendas/3 {
		t.Fatalf("prestígio = %d, esperava %d", estado.Prestigio, vendas/3)
	}
	if estado.ContadorVendasFase5 != vendas%3 {
		t.Fatalf("contador fase 5 = %d, esperava %d", estado.ContadorVendasFase5, vendas%3)
	}
	if estado.FaseAtual != FaseMaxima {
		t.Fatalf("fase mudou indevidamente: %d", estado.FaseAtual)
	}
	if ganhos := store.mudancas(MudancaPrestigio); len(ganhos) != vendas/3 {
		t.Fatalf("esperava %d registros de prestígio, obteve %d", vendas/3, len(ganhos))
	}
}

func TestFase5RecordeUltra(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, "2026-04")
	tenantID := uuid.New()
	corretorID := uuid.New()
	store.seed(tenantID, corretorID)
	store.config = &ConfigFases{TenantID: tenantID, Ativo: true, TentativasFase1: 3, MaxMesesSolitario: 3}

	mes := "2026-04"
	estado := store.estados[corretorID]
	estado.Inscrito = true
	estado.FaseAtual = FaseMaxima
	estado.RecordeUltra = 2
	estado.MesAcompanhamento = &mes

	for i := 0; i < 3; i++ {
		if err := svc.ProcessarVenda(context.Background(), tenantID, corretorID, uuid.New(), false); err != nil {
			t.Fatal(err)
		}
	}

	estado = store.estados[corretorID]
	if estado.RecordeUltra != 3 {
		t.Fatalf("recorde ultra = %d", estado.RecordeUltra)
	}
	if estado.MesUltra == nil || *estado.MesUltra != "2026-04" {
		t.Fatalf("mês do recorde não registrado: %+v", estado.MesUltra)
	}
	// Só a terceira venda bate o recorde anterior de 2.
	if ultras := store.mudancas(MudancaUltra); len(ultras) != 1 {
		t.Fatalf("esperava 1 registro ultra, obteve %d", len(ultras))
	}
}

func TestVendaCorretorNaoInscritoIgnorada(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, "2026-04")
	tenantID := uuid.New()
	corretorID := uuid.New()
	store.seed(tenantID, corretorID)
	store.config = &ConfigFases{TenantID: tenantID, Ativo: true}

	if err := svc.ProcessarVenda(context.Background(), tenantID, corretorID, uuid.New(), false); err != nil {
		t.Fatal(err)
	}
	if len(store.historico) != 0 {
		t.Fatal("venda de não inscrito não deve gerar histórico")
	}
	if store.estados[corretorID].VendasMes != 0 {
		t.Fatal("venda de não inscrito não deve contar")
	}
}

func TestVendaSemVinculoIgnorada(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, "2026-04")

	if err := svc.ProcessarVenda(context.Background(), uuid.New(), uuid.New(), uuid.New(), false); err != nil {
		t.Fatal(err)
	}
}

func TestViradaRebaixaEVendaRecupera(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, "2026-05")
	tenantID := uuid.New()
	corretorID := uuid.New()
	store.seed(tenantID, corretorID)
	store.config = &ConfigFases{TenantID: tenantID, Ativo: true, TentativasFase1: 3, MaxMesesSolitario: 3}

	mes := "2026-04"
	estado := store.estados[corretorID]
	estado.Inscrito = true
	estado.FaseAtual = 3
	estado.MesAcompanhamento = &mes

	// Mês virou sem vendas: rebaixa 3->2 e só então conta a venda, 2->3.
	if err := svc.ProcessarVenda(context.Background(), tenantID, corretorID, uuid.New(), false); err != nil {
		t.Fatal(err)
	}

	estado = store.estados[corretorID]
	if estado.FaseAtual != 3 {
		t.Fatalf("fase final = %d, esperava 3", estado.FaseAtual)
	}
	if estado.VendasMes != 1 {
		t.Fatalf("vendas do mês = %d", estado.VendasMes)
	}
	if *estado.MesAcompanhamento != "2026-05" {
		t.Fatalf("mês não atualizado: %s", *estado.MesAcompanhamento)
	}
	if len(store.mudancas(MudancaRebaixamento)) != 1 || len(store.mudancas(MudancaAvanco)) != 1 {
		t.Fatalf("histórico esperado rebaixamento+avanço, obteve %+v", store.historico)
	}
	checkInvariante(t, estado)
}

func TestViradaMesComVendasNaoRebaixa(t *testing.T) {
	cfg := DefaultConfig(uuid.New())
	mes := "2026-04"
	estado := &EstadoCorretor{Inscrito: true, FaseAtual: 4, VendasMes: 2, MesAcompanhamento: &mes}

	historicos := aplicarViradaDeMes(estado, &cfg, "2026-05")
	if len(historicos) != 0 {
		t.Fatalf("mês com vendas não deve gerar mudanças: %+v", historicos)
	}
	if estado.FaseAtual != 4 || estado.VendasMes != 0 || *estado.MesAcompanhamento != "2026-05" {
		t.Fatalf("estado pós-virada inesperado: %+v", estado)
	}
}

func TestViradaMesmoMesNoOp(t *testing.T) {
	cfg := DefaultConfig(uuid.New())
	mes := "2026-04"
	estado := &EstadoCorretor{Inscrito: true, FaseAtual: 2, VendasMes: 0, MesAcompanhamento: &mes}

	if historicos := aplicarViradaDeMes(estado, &cfg, "2026-04"); len(historicos) != 0 {
		t.Fatalf("mesmo mês não pode decair: %+v", historicos)
	}
	if estado.FaseAtual != 2 || estado.VendasMes != 0 {
		t.Fatalf("estado alterado no mesmo mês: %+v", estado)
	}
}

func TestTentativasEsgotadasEntraSolitario(t *testing.T) {
	cfg := DefaultConfig(uuid.New())
	mes := "2026-01"
	estado := &EstadoCorretor{Inscrito: true, FaseAtual: FaseMinima, TentativasFase1: 2, MesAcompanhamento: &mes}

	historicos := aplicarViradaDeMes(estado, &cfg, "2026-02")
	if !estado.Solitario || estado.FaseAtual != FaseSolitario {
		t.Fatalf("esperava modo solitário: %+v", estado)
	}
	if estado.TentativasFase1 != 0 || estado.MesesSolitarioSemVenda != 0 {
		t.Fatalf("contadores de entrada no solitário não zerados: %+v", estado)
	}
	if len(historicos) != 1 || historicos[0].TipoMudanca != MudancaEntraSolitario {
		t.Fatalf("histórico inesperado: %+v", historicos)
	}
	checkInvariante(t, estado)
}

func TestSolitarioEsgotadoSaiDoSistema(t *testing.T) {
	cfg := DefaultConfig(uuid.New())
	mes := "2026-01"
	estado := &EstadoCorretor{Inscrito: true, FaseAtual: FaseSolitario, Solitario: true, MesesSolitarioSemVenda: 2, MesAcompanhamento: &mes}

	historicos := aplicarViradaDeMes(estado, &cfg, "2026-02")
	if estado.Inscrito {
		t.Fatal("terceiro mês sem venda no solitário deve remover do sistema")
	}
	if len(historicos) != 1 || historicos[0].TipoMudanca != MudancaSaida {
		t.Fatalf("histórico inesperado: %+v", historicos)
	}
}

func TestVendaAposViradaQueRemoveuEIgnorada(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, "2026-05")
	tenantID := uuid.New()
	corretorID := uuid.New()
	store.seed(tenantID, corretorID)
	store.config = &ConfigFases{TenantID: tenantID, Ativo: true, TentativasFase1: 3, MaxMesesSolitario: 3}

	mes := "2026-04"
	estado := store.estados[corretorID]
	estado.Inscrito = true
	estado.FaseAtual = FaseSolitario
	estado.Solitario = true
	estado.MesesSolitarioSemVenda = 2
	estado.MesAcompanhamento = &mes

	if err := svc.ProcessarVenda(context.Background(), tenantID, corretorID, uuid.New(), false); err != nil {
		t.Fatal(err)
	}

	estado = store.estados[corretorID]
	if estado.Inscrito {
		t.Fatal("virada deveria ter removido o corretor antes da venda")
	}
	if estado.VendasMes != 0 {
		t.Fatalf("venda pós-remoção foi contada: %d", estado.VendasMes)
	}
	if len(store.mudancas(MudancaSaida)) != 1 {
		t.Fatal("saída não registrada")
	}
}

func TestVendaNoSolitarioVoltaParaFase1(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, "2026-04")
	tenantID := uuid.New()
	corretorID := uuid.New()
	store.seed(tenantID, corretorID)
	store.config = &ConfigFases{TenantID: tenantID, Ativo: true, TentativasFase1: 3, MaxMesesSolitario: 3}

	mes := "2026-04"
	estado := store.estados[corretorID]
	estado.Inscrito = true
	estado.FaseAtual = FaseSolitario
	estado.Solitario = true
	estado.MesesSolitarioSemVenda = 1
	estado.MesAcompanhamento = &mes

	if err := svc.ProcessarVenda(context.Background(), tenantID, corretorID, uuid.New(), false); err != nil {
		t.Fatal(err)
	}

	estado = store.estados[corretorID]
	if estado.Solitario || estado.FaseAtual != FaseMinima {
		t.Fatalf("venda no solitário deve voltar direto para a fase 1: %+v", estado)
	}
	if estado.TentativasFase1 != 0 {
		t.Fatalf("tentativas não zeradas: %d", estado.TentativasFase1)
	}
	if len(store.mudancas(MudancaSaiSolitario)) != 1 {
		t.Fatal("saída do solitário não registrada")
	}
	checkInvariante(t, estado)
}

func TestSelecionarSemConfigOuInativo(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, "2026-04")
	tenantID := uuid.New()

	id, err := svc.SelecionarCorretor(context.Background(), tenantID)
	if err != nil || id != nil {
		t.Fatalf("sem config deveria devolver nil, obteve %v, %v", id, err)
	}

	store.config = &ConfigFases{TenantID: tenantID, Ativo: false, PesoFase1: 100}
	id, err = svc.SelecionarCorretor(context.Background(), tenantID)
	if err != nil || id != nil {
		t.Fatalf("inativo deveria devolver nil, obteve %v, %v", id, err)
	}
}

func TestSelecionarSemElegiveis(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, "2026-04")
	tenantID := uuid.New()
	store.config = &ConfigFases{TenantID: tenantID, Ativo: true, PesoFase1: 100}

	solitario := uuid.New()
	store.seed(tenantID, solitario)
	store.estados[solitario].Inscrito = true
	store.estados[solitario].Solitario = true

	id, err := svc.SelecionarCorretor(context.Background(), tenantID)
	if err != nil || id != nil {
		t.Fatalf("solitário não é elegível; esperava nil, obteve %v, %v", id, err)
	}
}

func TestSelecionarRoletaPonderada(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, "2026-04")
	tenantID := uuid.New()
	store.config = &ConfigFases{TenantID: tenantID, Ativo: true, PesoFase1: 100, PesoFase5: 300}

	fase1 := uuid.New()
	fase5 := uuid.New()
	store.seed(tenantID, fase1)
	store.seed(tenantID, fase5)
	store.estados[fase1].Inscrito = true
	store.estados[fase1].FaseAtual = 1
	store.estados[fase5].Inscrito = true
	store.estados[fase5].FaseAtual = 5

	// Total 400: r abaixo de 100 cai no primeiro, acima no segundo.
	casos := []struct {
		sorteio  float64
		esperado uuid.UUID
	}{
		{0.0, fase1},
		{0.2, fase1},
		{0.25, fase1},
		{0.26, fase5},
		{0.9, fase5},
	}

	for _, tc := range casos {
		svc.sorteio = sorteioFixo{tc.sorteio}
		id, err := svc.SelecionarCorretor(context.Background(), tenantID)
		if err != nil {
			t.Fatal(err)
		}
		if id == nil || *id != tc.esperado {
			t.Fatalf("sorteio %.2f: esperava %s, obteve %v", tc.sorteio, tc.esperado, id)
		}
	}
}

func TestSelecionarPesoTotalZero(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, "2026-04")
	tenantID := uuid.New()
	store.config = &ConfigFases{TenantID: tenantID, Ativo: true}

	corretor := uuid.New()
	store.seed(tenantID, corretor)
	store.estados[corretor].Inscrito = true
	store.estados[corretor].FaseAtual = 1

	id, err := svc.SelecionarCorretor(context.Background(), tenantID)
	if err != nil || id != nil {
		t.Fatalf("peso total zero deveria devolver nil, obteve %v, %v", id, err)
	}
}

func TestSetAtivoSemConfigNoOp(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, "2026-04")

	if err := svc.SetAtivo(context.Background(), uuid.New(), true); err != nil {
		t.Fatal(err)
	}
}

func TestGetConfigAusenteDevolveNil(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, "2026-04")

	cfg, err := svc.GetConfig(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if cfg != nil {
		t.Fatalf("esperava nil, obteve %+v", cfg)
	}
}

func TestRankingSemCachePassaDireto(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, "2026-04")
	tenantID := uuid.New()

	for i := 0; i < 3; i++ {
		id := uuid.New()
		store.seed(tenantID, id)
		store.estados[id].Inscrito = true
		store.estados[id].FaseAtual = 1
	}

	ranking, err := svc.Ranking(context.Background(), tenantID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(ranking) != 2 {
		t.Fatalf("limite não aplicado: %d", len(ranking))
	}
}

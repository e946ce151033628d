package db

const Schema = `
create table if not exists documents (
	path text primary key,
	fields text not null,
	updated_at integer not null
);
create index if not exists idx_documents_path on documents (path);
`
